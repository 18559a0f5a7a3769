package crm

import (
	"context"

	"corretores-sync-app/internal/models"
)

const capacidadeMaximaPaginas = 1024

// ColetarTodos percorre todas as páginas. O total vem da primeira resposta e não é relido:
// se a base mudar no meio da coleta, a diferença não é detectada.
func (c *Client) ColetarTodos(ctx context.Context) ([]models.RegistroBruto, int, error) {
	c.log.InfoContext(ctx, "⏳ Obtendo metadados...")
	primeira, err := c.Buscar(ctx, 1)
	if err != nil {
		return nil, 0, err
	}

	total := primeira.TotalDePaginas
	if total < 1 {
		total = 1
	}
	c.log.InfoContext(ctx, "📊 Total de páginas", "total", total)

	// o total vem do servidor; a capacidade inicial é limitada
	paginas := make([][]models.RegistroBruto, 0, min(total, capacidadeMaximaPaginas))
	paginas = append(paginas, primeira.Dados)

	for numero := 2; numero <= total; numero++ {
		if err := c.sleep(ctx, c.pagePause); err != nil {
			return nil, 0, &FetchError{Pagina: numero, Err: err}
		}
		c.log.InfoContext(ctx, "🔍 Processando página", "pagina", numero, "total", total)
		p, err := c.Buscar(ctx, numero)
		if err != nil {
			return nil, 0, err
		}
		paginas = append(paginas, p.Dados)
	}

	return concatenar(paginas), total, nil
}

func concatenar(paginas [][]models.RegistroBruto) []models.RegistroBruto {
	n := 0
	for _, p := range paginas {
		n += len(p)
	}
	out := make([]models.RegistroBruto, 0, n)
	for _, p := range paginas {
		out = append(out, p...)
	}
	return out
}
