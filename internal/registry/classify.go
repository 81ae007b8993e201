// Package registry provides RegistryClient implementations: an OCI
// distribution API client built on go-containerregistry and a client that
// drives the docker CLI.
package registry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/google/go-containerregistry/pkg/v1/remote/transport"

	"github.com/zjrosen/promoter/internal/promotion"
)

// ClassifyRemote wraps an error from go-containerregistry as transient or
// permanent.
func ClassifyRemote(op string, err error) error {
	if err == nil {
		return nil
	}

	var terr *transport.Error
	if errors.As(err, &terr) {
		for _, d := range terr.Errors {
			switch d.Code {
			case transport.TooManyRequestsErrorCode:
				return promotion.Transient(op, err)
			case transport.ManifestUnknownErrorCode,
				transport.NameUnknownErrorCode,
				transport.NameInvalidErrorCode,
				transport.TagInvalidErrorCode,
				transport.UnauthorizedErrorCode,
				transport.DeniedErrorCode:
				return promotion.Permanent(op, err)
			}
		}
		switch {
		case terr.StatusCode == http.StatusTooManyRequests,
			terr.StatusCode == http.StatusRequestTimeout,
			terr.StatusCode >= 500:
			return promotion.Transient(op, err)
		case terr.Temporary():
			return promotion.Transient(op, err)
		default:
			return promotion.Permanent(op, err)
		}
	}

	if isNetworkTransient(err) {
		return promotion.Transient(op, err)
	}
	return promotion.Permanent(op, err)
}

func isNetworkTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// DNS and TLS failures surface as *net.OpError too; only dropped
	// connections are worth another attempt.
	var operr *net.OpError
	if errors.As(err, &operr) && operr.Err != nil {
		msg := strings.ToLower(operr.Err.Error())
		return strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "connection reset")
	}
	return false
}

// Substrings of docker CLI stderr, lower-cased.
var (
	dockerPermanent = []string{
		"manifest unknown",
		"not found",
		"does not exist",
		"unauthorized",
		"authentication required",
		"denied",
		"invalid reference format",
		"no such image",
	}
	dockerTransient = []string{
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"toomanyrequests",
		"too many requests",
		"429",
		"502 bad gateway",
		"503 service unavailable",
		"504 gateway",
		"500 internal server error",
		"unexpected eof",
		"i/o timeout",
		"tls handshake",
	}
)

// ClassifyDocker classifies a docker CLI failure from its stderr.
// Permanent markers win over transient ones; unmatched output is permanent.
func ClassifyDocker(op, stderr string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return promotion.Transient(op, err)
	}

	lower := strings.ToLower(stderr)
	for _, s := range dockerPermanent {
		if strings.Contains(lower, s) {
			return promotion.Permanent(op, &DockerError{Stderr: stderr, Err: err})
		}
	}
	for _, s := range dockerTransient {
		if strings.Contains(lower, s) {
			return promotion.Transient(op, &DockerError{Stderr: stderr, Err: err})
		}
	}
	return promotion.Permanent(op, &DockerError{Stderr: stderr, Err: err})
}

// DockerError carries the CLI's stderr.
type DockerError struct {
	Stderr string
	Err    error
}

func (e *DockerError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return e.Stderr
}

func (e *DockerError) Unwrap() error { return e.Err }
