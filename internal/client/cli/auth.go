package cli

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/services"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a login and password (twice) and creates a new
// account via the AuthService. The password bytes are wiped before
// returning.
func (a *App) Register(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	repeat, err := getPassword("Repeat password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeat)

	if string(password) != string(repeat) {
		log.Printf("passwords do not match")
		return errors.New("passwords do not match")
	}

	if err := a.authService.Register(ctx, login, password); err != nil {
		log.Printf("registration failed: %s", err.Error())
		return err
	}

	printlnFn("Account created, you can log in now.")
	return nil
}

// Login prompts for credentials and tries to authenticate.
//
// The method first attempts an online login. If the server is unavailable,
// it falls back to the locally cached verifier so the vault can be unlocked
// offline. On success the per-user sync controller is loaded and the
// connectivity mode reflects which path succeeded.
//
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, masterKey, err := a.authService.OnlineLogin(ctx, login, password)
	if err != nil {
		if !errors.Is(err, common.ErrServerUnavailable) {
			log.Printf("login failed: %s", err.Error())
			return err
		}

		log.Printf("server unavailable, trying offline login...")
		sess, masterKey, err = a.authService.OfflineLogin(ctx, login, password)
		if err != nil {
			if errors.Is(err, services.ErrLocalDataNotAvailable) {
				log.Printf("no local data for this account, online login required")
			} else {
				log.Printf("offline login failed: %s", err.Error())
			}
			return err
		}

		log.Printf("offline login successful")
		return a.beginSession(ctx, sess, masterKey, ModeOffline)
	}

	log.Printf("login successful")
	return a.beginSession(ctx, sess, masterKey, ModeOnline)
}

// Logout drops the persisted session and forgets the in-memory master key.
// Cached offline credentials survive so the account can still be unlocked
// without the server.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.endSession()
	return nil
}
