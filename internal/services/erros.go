package services

import "fmt"

// SchemaError indica um registro sem uma das colunas obrigatórias. Aborta a execução.
type SchemaError struct {
	Indice int
	Coluna string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("registro %d sem a coluna obrigatória %q", e.Indice, e.Coluna)
}

// SerializationError indica um lote ou registro que não pode ser codificado para o destino.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("erro de serialização: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// SinkWriteError indica que o destino rejeitou o lote ou o registro.
type SinkWriteError struct {
	Registros int
	Err       error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("destino rejeitou %d registro(s): %v", e.Registros, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
