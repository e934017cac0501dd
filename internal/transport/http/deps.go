package http

import (
	"github.com/go-lms-api/internal/application/auth"
	"github.com/go-lms-api/internal/application/otp"
	"github.com/go-lms-api/internal/application/user"
)

// Deps holds the application services the router serves.
type Deps struct {
	Auth  auth.Service
	OTP   otp.Service
	Users user.Service
}
