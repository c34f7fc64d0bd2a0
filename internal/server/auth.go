package server

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/npezzotti/roomchat/internal/database"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"
)

const anonymousPrefix = "Anon-"

func generateAnonymousName() (string, error) {
	id, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate anonymous name: %w", err)
	}

	return anonymousPrefix + id, nil
}

func validUsername(username string) bool {
	return username != "" && !strings.ContainsFunc(username, unicode.IsSpace)
}

// credentialDigest fits credentials of any length within bcrypt's 72 byte
// input limit.
func credentialDigest(credential string) []byte {
	sum := sha256.Sum256([]byte(credential))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// authenticate checks a credential against the stored bcrypt hash. Accounts
// created for anonymous sessions can never log in.
func (cs *ChatServer) authenticate(username, credential string) error {
	user, err := cs.db.GetAccount(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("get account: %w", err)
	}

	if user.Anonymous {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), credentialDigest(credential)); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}

// registerAccount stores a new account with a hashed credential. It fails
// with database.ErrConflict if the username is already taken.
func (cs *ChatServer) registerAccount(username, credential string) error {
	if !validUsername(username) {
		return ErrInvalidUsername
	}

	exists, err := cs.db.UsernameExists(username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists {
		return database.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword(credentialDigest(credential), cs.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}

	if _, err := cs.db.CreateAccount(database.CreateAccountParams{
		Username:     username,
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (cs *ChatServer) registerAnonymousAccount(username string) error {
	_, err := cs.db.CreateAccount(database.CreateAccountParams{
		Username:  username,
		Anonymous: true,
	})
	if err != nil && !errors.Is(err, database.ErrConflict) {
		return fmt.Errorf("create anonymous account: %w", err)
	}

	return nil
}
