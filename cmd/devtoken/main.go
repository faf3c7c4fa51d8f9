// Command devtoken mints a bearer token for local testing, signed with
// JWT_SECRET_KEY.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/platform/envutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"github.com/yungbote/healthlog-backend/internal/services"
)

func main() {
	var user, role string
	var ttl time.Duration
	flag.StringVar(&user, "user", "", "user id (uuid); a random one when empty")
	flag.StringVar(&role, "role", "user", "user or admin")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	userID := uuid.New()
	if s := strings.TrimSpace(user); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(2)
		}
		userID = id
	}

	secret := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	auth := services.NewAuthService(logger.NewNop(), secret, ttl)
	token, err := auth.IssueToken(userID, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user_id=%s role=%s expires_in=%s\n", userID, role, ttl)
	fmt.Println(token)
}
