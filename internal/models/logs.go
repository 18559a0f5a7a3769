package models

import "time"

// ResumoLog representa a linha JSON emitida ao final da sincronização
type ResumoLog struct {
	Estado        string    `json:"estado"`
	Paginas       int       `json:"paginas"`
	Coletados     int       `json:"coletados"`
	Normalizados  int       `json:"normalizados"`
	Lotes         int       `json:"lotes"`
	LotesFalhos   int       `json:"lotes_falhos"`
	Gravados      int       `json:"gravados"`
	Falhas        int       `json:"falhas"`
	IDsComFalha   []string  `json:"ids_com_falha,omitempty"`
	Erro          string    `json:"erro,omitempty"`
	TempoExecucao string    `json:"tempo_execucao"`
	Timestamp     time.Time `json:"timestamp"`
}
