package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"corretores-sync-app/internal/models"
)

// LayoutDataCad é o formato canônico gravado em data_cad.
const LayoutDataCad = "2006-01-02 15:04:05"

// layoutsAceitos cobre os formatos já vistos na API. Frações de segundo são descartadas.
var layoutsAceitos = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// NormalizarCorretores projeta as colunas obrigatórias e converte cada valor para texto limpo
// ou nulo explícito. A ordem de entrada é preservada; nada é filtrado ou deduplicado.
func NormalizarCorretores(registros []models.RegistroBruto) ([]models.Corretor, error) {
	out := make([]models.Corretor, 0, len(registros))
	for i, r := range registros {
		for _, coluna := range models.Colunas {
			if _, ok := r[coluna]; !ok {
				return nil, &SchemaError{Indice: i, Coluna: coluna}
			}
		}

		out = append(out, models.Corretor{
			IDCorretor:    texto(r[models.ColunaIDCorretor]),
			AtivoLogin:    texto(r[models.ColunaAtivoLogin]),
			Nome:          texto(r[models.ColunaNome]),
			Documento:     texto(r[models.ColunaDocumento]),
			DataCad:       dataCanonica(texto(r[models.ColunaDataCad])),
			IDImobiliaria: texto(r[models.ColunaIDImobiliaria]),
		})
	}
	return out, nil
}

// texto converte um valor da API para string sem NUL. nil continua nil.
func texto(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprint(val)
		} else {
			s = string(b)
		}
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return &s
}

// dataCanonica reescreve a data no layout canônico; valores vazios, zerados ou
// não reconhecidos viram nulo.
func dataCanonica(v *string) *string {
	if v == nil {
		return nil
	}
	raw := strings.TrimSpace(*v)
	if raw == "" || strings.HasPrefix(raw, "0000-00-00") {
		return nil
	}
	for _, layout := range layoutsAceitos {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		s := t.Format(LayoutDataCad)
		return &s
	}
	return nil
}
