package models

import "time"

// RegistroRejeitado é a mensagem publicada no tópico de erros quando um corretor
// não pôde ser gravado nem individualmente.
type RegistroRejeitado struct {
	IDCorretor string    `json:"idcorretor"`
	Tabela     string    `json:"tabela"`
	Payload    Corretor  `json:"payload"`
	Motivo     string    `json:"motivo"`
	Timestamp  time.Time `json:"timestamp"`
}
