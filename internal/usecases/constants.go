package usecases

import "fmt"

// VerificationPath is where the emailed link points on this API.
const VerificationPath = "/api/auth/verify-email"

// Client-facing messages.
const (
	MsgBodyMissing            = "Request body is missing or not parsed. Make sure you send JSON with Content-Type: application/json."
	MsgEmailPasswordRequired  = "Email and password are required."
	MsgInvalidEmail           = "Please provide a valid email address."
	MsgWeakPassword           = "Password must be at least 8 characters long and include at least one uppercase letter, one lowercase letter, one number, and one symbol."
	MsgPasswordTooLong        = "Password must be at most 72 bytes long."
	MsgInvalidName            = "Name is invalid. Please provide a shorter valid name."
	MsgEmailInUse             = "Email already in use. Please login instead."
	MsgRegistrationMailFailed = "Registration failed while sending verification email. Please try again later."
	MsgRegistered             = "User registered successfully. Please check your email to verify your account."

	MsgTokenMissing = "Verification token is missing."
	MsgTokenInvalid = "Invalid verification token."
	MsgTokenUsed    = "Token already used. Email is already verified."
	MsgTokenExpired = "Verification token has expired."

	// Shared by unknown accounts and wrong passwords so the two are indistinguishable.
	MsgInvalidCredentials = "Invalid email or password."
	MsgEmailNotVerified   = "Please verify your email before logging in."
	MsgLoggedIn           = "Logged in successfully."
	MsgLoggedOut          = "Logged out successfully."
	MsgUserNotFound       = "User not found."

	MsgProviderUnknown      = "Unknown sign-in provider."
	MsgOAuthStateInvalid    = "Sign-in session is invalid or has expired. Please try again."
	MsgOAuthDenied          = "Sign-in was cancelled or denied by the provider."
	MsgOAuthFailed          = "Could not complete sign-in with the provider. Please try again."
	MsgOAuthEmailUnverified = "Your provider account email address is not verified."
	MsgOAuthConflict        = "This email is already linked to a different sign-in account."
	MsgOAuthUnavailable     = "Sign-in is temporarily unavailable. Please try again later."
)

// MsgExternalAccount is returned when a password login targets an account
// that only has a provider identity.
func MsgExternalAccount(provider string) string {
	return fmt.Sprintf("This account uses %s sign-in. Please continue with %s.", provider, provider)
}

// Metric labels for auth events.
const (
	FlowRegister    = "register"
	FlowVerifyEmail = "verify_email"
	FlowLogin       = "login"
	FlowOAuth       = "oauth"

	OutcomeSuccess    = "success"
	OutcomeRejected   = "rejected"
	OutcomeConflict   = "conflict"
	OutcomeMailFailed = "mail_failed"
	OutcomeError      = "error"
)
