package database

import (
	"fmt"
	"strings"

	"corretores-sync-app/internal/models"
)

// Dialetos suportados pelo SQLSink.
const (
	DialetoMySQL  = "mysql"
	DialetoSQLite = "sqlite"
)

// quote escapa um identificador no estilo do dialeto.
func quote(dialeto, nome string) string {
	if dialeto == DialetoMySQL {
		return "`" + strings.ReplaceAll(nome, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(nome, `"`, `""`) + `"`
}

// montarUpsert gera um INSERT de várias linhas que atualiza as colunas não-chave no conflito.
func montarUpsert(dialeto, tabela, chaveConflito string, registros []models.Corretor) (string, []any, error) {
	if len(registros) == 0 {
		return "", nil, fmt.Errorf("nenhum registro para gravar")
	}

	colunas := make([]string, 0, len(models.Colunas))
	for _, c := range models.Colunas {
		colunas = append(colunas, quote(dialeto, c))
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(colunas)), ", ") + ")"

	valueStrings := make([]string, 0, len(registros))
	valueArgs := make([]any, 0, len(registros)*len(colunas))
	for _, r := range registros {
		valueStrings = append(valueStrings, placeholder)
		valueArgs = append(valueArgs, argumentos(r)...)
	}

	var sets []string
	for _, c := range models.Colunas {
		if c == chaveConflito {
			continue
		}
		q := quote(dialeto, c)
		if dialeto == DialetoMySQL {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
		} else {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", q, q))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s", quote(dialeto, tabela), strings.Join(colunas, ", "), strings.Join(valueStrings, ", "))
	switch dialeto {
	case DialetoMySQL:
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
	case DialetoSQLite:
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", quote(dialeto, chaveConflito))
	default:
		return "", nil, fmt.Errorf("dialeto não suportado: %s", dialeto)
	}
	b.WriteString(strings.Join(sets, ", "))
	return b.String(), valueArgs, nil
}

// argumentos desfaz os ponteiros: cada valor vai como string ou nil, aceito por todos os drivers.
func argumentos(c models.Corretor) []any {
	valores := c.Valores()
	out := make([]any, len(valores))
	for i, v := range valores {
		if s, ok := v.(*string); ok && s != nil {
			out[i] = *s
		}
	}
	return out
}
