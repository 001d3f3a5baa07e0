/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package auth guards the gateway's admin API with signed bearer tokens. A
// single admin credential pair comes from the server configuration; tokens
// are HS256 JWTs.
package auth

import (
	"crypto/subtle"
	"errors"
)

type Config struct {
	SecretKey      string `json:"secret_key"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	ExpirationTime int    `json:"expiration_time,omitempty"` // hours
}

var authConfig Config
var initialized bool

// Initialize enables admin-API authentication. Secret key and credentials
// are all required.
func Initialize(cfg Config) error {
	if cfg.SecretKey == "" {
		return errors.New("secret key is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return errors.New("admin credentials are required")
	}
	if cfg.ExpirationTime == 0 {
		cfg.ExpirationTime = 24
	}
	authConfig = cfg
	initialized = true
	return nil
}

func Enabled() bool {
	return initialized
}

func CheckCredentials(username, password string) bool {
	if !initialized {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(authConfig.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(authConfig.Password)) == 1
	return userOK && passOK
}

// CreateToken validates the credentials and issues a bearer token.
func CreateToken(username, password string) (string, error) {
	if !CheckCredentials(username, password) {
		return "", errors.New("invalid credentials")
	}
	return createJWT(username)
}

func VerifyToken(token string) bool {
	_, err := verifyJWT(token)
	return err == nil
}

func GetUserFromToken(token string) (string, error) {
	claims, err := verifyJWT(token)
	if err != nil {
		return "", err
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub, nil
	}
	return "", errors.New("user id not found")
}
