package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeSkip marks a token spec this tool does not support yet. It is not a failure.
	ErrDecodeSkip = errors.New("unsupported token spec")

	ErrMalformedLine  = errors.New("malformed line")
	ErrOverflow       = errors.New("asset id does not fit in the xc20 address suffix")
	ErrInvalidAddress = errors.New("invalid contract address")
	ErrUnknownChain   = errors.New("unknown chain")
	ErrKeyReleased    = errors.New("signing key already released")
)

// DecodeError is a decode failure for a single line.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RPCError is a failed read against a chain.
type RPCError struct {
	Chain  ChainName
	Target string
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s on %s (%s): %v", e.Method, e.Target, e.Chain, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// SubmissionError is a failed approval submission, tagged with chain and token.
type SubmissionError struct {
	Chain   ChainName
	Token   string
	Spender string
	Stage   string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("approve %s for %s on %s failed at %s: %v", e.Token, e.Spender, e.Chain, e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// FatalCredentialError aborts the whole run: no further submission can succeed.
type FatalCredentialError struct {
	Err error
}

func (e *FatalCredentialError) Error() string {
	return fmt.Sprintf("signing credential unusable: %v", e.Err)
}

func (e *FatalCredentialError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	var fatal *FatalCredentialError
	return errors.As(err, &fatal)
}
