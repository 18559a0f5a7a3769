package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corretores-sync-app/internal/models"
)

func registroBruto(id any) models.RegistroBruto {
	return models.RegistroBruto{
		"idcorretor":    id,
		"ativo_login":   "S",
		"nome":          "Maria",
		"documento":     "123.456.789-00",
		"data_cad":      "2021-03-15 10:22:33",
		"idimobiliaria": json.Number("12"),
		"email":         "fora da projeção",
	}
}

func TestNormalizarCorretoresDeterministico(t *testing.T) {
	nulo := registroBruto(json.Number("1"))
	nulo["data_cad"] = nil

	malformada := registroBruto(json.Number("2"))
	malformada["data_cad"] = "31/02/abc"

	comNUL := registroBruto(json.Number("3"))
	comNUL["nome"] = "Jo\x00ão\x00"

	semOpcional := registroBruto(json.Number("4"))
	semOpcional["documento"] = nil
	semOpcional["idimobiliaria"] = nil

	entrada := []models.RegistroBruto{nulo, malformada, comNUL, semOpcional}

	primeira, err := NormalizarCorretores(entrada)
	require.NoError(t, err)
	segunda, err := NormalizarCorretores(entrada)
	require.NoError(t, err)
	require.Equal(t, primeira, segunda)
	require.Len(t, primeira, 4)

	assert.Nil(t, primeira[0].DataCad)
	assert.Nil(t, primeira[1].DataCad)
	assert.Equal(t, "João", *primeira[2].Nome)
	assert.Nil(t, primeira[3].Documento)
	assert.Nil(t, primeira[3].IDImobiliaria)

	// strings já limpas passam sem alteração
	assert.Equal(t, "Maria", *primeira[0].Nome)
	assert.Equal(t, "123.456.789-00", *primeira[0].Documento)
	assert.Equal(t, "S", *primeira[0].AtivoLogin)
	assert.Equal(t, "12", *primeira[0].IDImobiliaria)
	assert.Equal(t, "2021-03-15 10:22:33", *primeira[2].DataCad)
}

func TestNormalizarCorretoresPreservaOrdem(t *testing.T) {
	entrada := []models.RegistroBruto{
		registroBruto(json.Number("30")),
		registroBruto(json.Number("10")),
		registroBruto(json.Number("20")),
		registroBruto(json.Number("10")),
	}

	out, err := NormalizarCorretores(entrada)
	require.NoError(t, err)

	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.Identificador())
	}
	require.Equal(t, []string{"30", "10", "20", "10"}, ids)
}

func TestNormalizarCorretoresColunaAusenteFalha(t *testing.T) {
	incompleto := registroBruto("2")
	delete(incompleto, "data_cad")

	_, err := NormalizarCorretores([]models.RegistroBruto{registroBruto("1"), incompleto})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, 1, schemaErr.Indice)
	require.Equal(t, "data_cad", schemaErr.Coluna)
}

func TestTextoConverteTipos(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *string
	}{
		{"nulo", nil, nil},
		{"string", "abc", strp("abc")},
		{"string vazia continua vazia", "", strp("")},
		{"numero json inteiro", json.Number("1234567890123"), strp("1234567890123")},
		{"numero json decimal", json.Number("12.50"), strp("12.50")},
		{"float sem artefato", 42.0, strp("42")},
		{"bool", true, strp("true")},
		{"objeto vira json", map[string]any{"a": "b"}, strp(`{"a":"b"}`)},
		{"NUL removido", "a\x00b", strp("ab")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, texto(tt.in))
		})
	}
}

func TestDataCanonica(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"2021-03-15 10:22:33", strp("2021-03-15 10:22:33")},
		{"2021-03-15 10:22:33.987", strp("2021-03-15 10:22:33")},
		{"2021-03-15T10:22:33-03:00", strp("2021-03-15 10:22:33")},
		{"2021-03-15T10:22:33Z", strp("2021-03-15 10:22:33")},
		{"2021-03-15", strp("2021-03-15 00:00:00")},
		{"15/03/2021 10:22:33", strp("2021-03-15 10:22:33")},
		{"15/03/2021", strp("2021-03-15 00:00:00")},
		{"0000-00-00 00:00:00", nil},
		{"", nil},
		{"   ", nil},
		{"NaT", nil},
		{"ontem", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, dataCanonica(strp(tt.in)))
		})
	}
}
