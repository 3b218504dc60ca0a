package libraryv1

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/syncin/internal/domain/track"
)

// ErrorKindHeader carries the provider failure kind alongside a connect error.
const ErrorKindHeader = "X-Syncin-Error-Kind"

var kinds = []struct {
	name     string
	sentinel error
	code     connect.Code
}{
	{"not_found", track.ErrNotFound, connect.CodeNotFound},
	{"unplayable", track.ErrUnplayable, connect.CodeFailedPrecondition},
	{"rate_limited", track.ErrRateLimited, connect.CodeResourceExhausted},
	{"upstream", track.ErrUpstream, connect.CodeUnavailable},
	{"network", track.ErrNetwork, connect.CodeUnavailable},
}

// ToConnectError converts a provider error into a connect error whose code
// and kind header identify the failure.
func ToConnectError(err error) *connect.Error {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			cerr := connect.NewError(k.code, err)
			cerr.Meta().Set(ErrorKindHeader, k.name)
			return cerr
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	if errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// FromConnectError marks an error received from the service with the
// matching provider sentinel.
func FromConnectError(err error) error {
	if err == nil {
		return nil
	}
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return errors.Mark(err, track.ErrNetwork)
	}

	kind := cerr.Meta().Get(ErrorKindHeader)
	for _, k := range kinds {
		if kind == k.name {
			return errors.Mark(err, k.sentinel)
		}
	}

	switch cerr.Code() {
	case connect.CodeNotFound, connect.CodeInvalidArgument:
		return errors.Mark(err, track.ErrNotFound)
	case connect.CodeFailedPrecondition:
		return errors.Mark(err, track.ErrUnplayable)
	case connect.CodeResourceExhausted:
		return errors.Mark(err, track.ErrRateLimited)
	case connect.CodeCanceled, connect.CodeDeadlineExceeded:
		return err
	case connect.CodeUnavailable:
		return errors.Mark(err, track.ErrNetwork)
	default:
		return errors.Mark(err, track.ErrUpstream)
	}
}
