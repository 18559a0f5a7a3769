package crm

import (
	"context"
	"errors"
	"fmt"
)

// FetchError é a falha terminal ao buscar uma página da listagem.
type FetchError struct {
	Pagina     int
	Tentativas int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("erro ao buscar página %d (status %d, %d tentativa(s)): %v", e.Pagina, e.StatusCode, e.Tentativas, e.Err)
	}
	return fmt.Sprintf("erro ao buscar página %d (%d tentativa(s)): %v", e.Pagina, e.Tentativas, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout informa se a falha foi por esgotamento de tempo.
func (e *FetchError) Timeout() bool { return isTimeout(e.Err) }

// isTimeout percorre toda a cadeia: *url.Error implementa Timeout() mas só olha o erro imediato,
// e o retryablehttp embrulha o erro original com fmt.Errorf.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if t, ok := e.(interface{ Timeout() bool }); ok && t.Timeout() {
			return true
		}
	}
	return false
}
