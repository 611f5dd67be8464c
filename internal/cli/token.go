package cli

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/auth"
	"github.com/karndiy/gold-vertical-panel/internal/service"
)

func tokenCmd(c Context, args []string) (int, error) {
	fs := flag.NewFlagSet("goldpanel token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	operator := fs.String("operator", "ops", "name recorded in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return service.ExitSetup, err
	}
	if c.Config.Server.JWTSecret == "" {
		return service.ExitSetup, errors.New("server.jwt_secret is not set")
	}
	j := auth.JWT{Secret: []byte(c.Config.Server.JWTSecret), TokenTTL: *ttl}
	tok, exp, err := j.Sign(auth.Claims{Operator: *operator})
	if err != nil {
		return service.ExitSetup, err
	}
	return service.ExitOK, c.write(map[string]any{"token": tok, "expires_at": exp})
}
