package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"actdone.backend/pkg/crypto"
	"actdone.backend/pkg/validators"
)

// hash-gen prints a bcrypt hash for seeding password accounts, or checks a
// password against an existing hash:
//
//	hash-gen <password>
//	hash-gen <password> <hash>
//
// BCRYPT_COST selects the cost, as for the server.

var (
	printfFn = fmt.Printf
	fatalfFn = log.Fatalf
	getenvFn = os.Getenv
)

var errUsage = errors.New("usage: hash-gen <password> [hash]")

func resolveCost() int {
	if v := getenvFn("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil {
			return cost
		}
	}
	return crypto.DefaultCost
}

func run(args []string) error {
	if len(args) == 0 || len(args) > 2 || args[0] == "" {
		return errUsage
	}
	hasher := crypto.NewPasswordHasher(resolveCost())
	password := args[0]

	if len(args) == 2 {
		if !hasher.Verify(password, args[1]) {
			return errors.New("password does not match hash")
		}
		printfFn("Password matches hash\n")
		return nil
	}

	if !validators.IsStrongPassword(password) {
		printfFn("Warning: password does not meet the registration policy\n")
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	printfFn("Bcrypt Hash (cost %d): %s\n", hasher.Cost(), hash)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fatalfFn("%v", err)
	}
}
