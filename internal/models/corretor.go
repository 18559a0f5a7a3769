package models

// Colunas projetadas da listagem de corretores, na ordem gravada na tabela destino.
const (
	ColunaIDCorretor    = "idcorretor"
	ColunaAtivoLogin    = "ativo_login"
	ColunaNome          = "nome"
	ColunaDocumento     = "documento"
	ColunaDataCad       = "data_cad"
	ColunaIDImobiliaria = "idimobiliaria"
)

// Colunas lista as colunas obrigatórias de cada registro vindo do CRM.
var Colunas = []string{
	ColunaIDCorretor,
	ColunaAtivoLogin,
	ColunaNome,
	ColunaDocumento,
	ColunaDataCad,
	ColunaIDImobiliaria,
}

// RegistroBruto é um corretor como retornado pela API (números preservados como json.Number).
type RegistroBruto map[string]any

// Pagina representa uma resposta da listagem paginada.
type Pagina struct {
	Numero         int
	TotalDePaginas int
	Dados          []RegistroBruto
}

// Corretor é o registro normalizado. nil significa ausência explícita (NULL).
type Corretor struct {
	IDCorretor    *string `json:"idcorretor"`
	AtivoLogin    *string `json:"ativo_login"`
	Nome          *string `json:"nome"`
	Documento     *string `json:"documento"`
	DataCad       *string `json:"data_cad"`
	IDImobiliaria *string `json:"idimobiliaria"`
}

// Valores retorna os campos na mesma ordem de Colunas.
func (c Corretor) Valores() []any {
	return []any{c.IDCorretor, c.AtivoLogin, c.Nome, c.Documento, c.DataCad, c.IDImobiliaria}
}

// Identificador retorna o idcorretor ou "<nulo>" quando ausente.
func (c Corretor) Identificador() string {
	if c.IDCorretor == nil {
		return "<nulo>"
	}
	return *c.IDCorretor
}
