package form

// Field names, matching the columns of the submissions table.
const (
	FieldNomeCompleto       = "nome_completo"
	FieldDataNascimento     = "data_nascimento"
	FieldGenero             = "genero"
	FieldCPF                = "cpf"
	FieldRG                 = "rg"
	FieldTelefone           = "telefone"
	FieldEndereco           = "endereco"
	FieldBairro             = "bairro"
	FieldCidade             = "cidade"
	FieldEstado             = "estado"
	FieldCEP                = "cep"
	FieldRendaFamiliar      = "renda_familiar"
	FieldMembrosFamilia     = "membros_familia"
	FieldDespesasMensais    = "despesas_mensais"
	FieldEscolaridade       = "escolaridade"
	FieldSituacaoMoradia    = "situacao_moradia"
	FieldPossuiBeneficioGov = "possui_beneficio_gov"
	FieldQualBeneficio      = "qual_beneficio"
	FieldObservacoes        = "observacoes"
)

// GeneroOptions are the accepted genero values.
var GeneroOptions = []Option{
	{Value: "masculino", Label: "Masculino"},
	{Value: "feminino", Label: "Feminino"},
	{Value: "outro", Label: "Outro"},
	{Value: "prefiro_nao_informar", Label: "Prefiro não informar"},
}

// EscolaridadeOptions are the schooling levels, lowest first.
var EscolaridadeOptions = []Option{
	{Value: "sem_escolaridade", Label: "Sem escolaridade"},
	{Value: "fundamental_incompleto", Label: "Fundamental incompleto"},
	{Value: "fundamental_completo", Label: "Fundamental completo"},
	{Value: "medio_incompleto", Label: "Médio incompleto"},
	{Value: "medio_completo", Label: "Médio completo"},
	{Value: "superior_incompleto", Label: "Superior incompleto"},
	{Value: "superior_completo", Label: "Superior completo"},
	{Value: "pos_graduacao", Label: "Pós-graduação"},
}

// SituacaoMoradiaOptions describe the household's housing situation.
var SituacaoMoradiaOptions = []Option{
	{Value: "propria", Label: "Própria"},
	{Value: "alugada", Label: "Alugada"},
	{Value: "cedida", Label: "Cedida"},
	{Value: "financiada", Label: "Financiada"},
	{Value: "ocupacao", Label: "Ocupação"},
	{Value: "situacao_rua", Label: "Situação de rua"},
	{Value: "outra", Label: "Outra"},
}

// EstadosBrasil lists the federative unit codes.
var EstadosBrasil = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

func estadoOptions() []Option {
	out := make([]Option, len(EstadosBrasil))
	for i, uf := range EstadosBrasil {
		out[i] = Option{Value: uf, Label: uf}
	}
	return out
}

// Intake returns the beneficiary intake schema: personal data, address and
// socioeconomic data.
func Intake() *Schema {
	fields := []Field{
		{Name: FieldNomeCompleto, Label: "Nome completo", Required: true, MinLen: 3, Message: "Nome deve ter pelo menos 3 caracteres"},
		{Name: FieldDataNascimento, Label: "Data de nascimento", Required: true, Message: "Data de nascimento é obrigatória"},
		{Name: FieldGenero, Label: "Gênero", Required: true, Message: "Selecione o gênero", Options: GeneroOptions},
		{Name: FieldCPF, Label: "CPF"},
		{Name: FieldRG, Label: "RG"},
		{Name: FieldTelefone, Label: "Telefone"},

		{Name: FieldEndereco, Label: "Endereço", Required: true, MinLen: 3, Message: "Endereço é obrigatório"},
		{Name: FieldBairro, Label: "Bairro"},
		{Name: FieldCidade, Label: "Cidade", Required: true, MinLen: 2, Message: "Cidade é obrigatória"},
		{Name: FieldEstado, Label: "Estado", Required: true, MinLen: 2, Message: "Estado é obrigatório", Options: estadoOptions()},
		{Name: FieldCEP, Label: "CEP"},

		{Name: FieldRendaFamiliar, Label: "Renda familiar (R$)", Kind: KindNumber, HasMin: true, Min: 0, Message: "Renda não pode ser negativa"},
		{Name: FieldMembrosFamilia, Label: "Membros da família", Kind: KindInteger, HasMin: true, Min: 1, Message: "Deve ter pelo menos 1 membro"},
		{Name: FieldDespesasMensais, Label: "Despesas mensais (R$)", Kind: KindNumber, HasMin: true, Min: 0},
		{Name: FieldEscolaridade, Label: "Escolaridade", Options: EscolaridadeOptions},
		{Name: FieldSituacaoMoradia, Label: "Situação de moradia", Options: SituacaoMoradiaOptions},
		{Name: FieldPossuiBeneficioGov, Label: "Possui benefício do governo", Kind: KindBool, Default: false},
		{Name: FieldQualBeneficio, Label: "Qual benefício"},
		{Name: FieldObservacoes, Label: "Observações"},
	}
	steps := []Step{
		{
			Name:        "personal",
			Title:       "Dados Pessoais",
			Description: "Informações básicas do inscrito",
			Fields:      []string{FieldNomeCompleto, FieldDataNascimento, FieldGenero, FieldCPF, FieldRG, FieldTelefone},
		},
		{
			Name:        "address",
			Title:       "Endereço",
			Description: "Localização e moradia",
			Fields:      []string{FieldEndereco, FieldBairro, FieldCidade, FieldEstado, FieldCEP},
		},
		{
			Name:        "socioeconomic",
			Title:       "Dados Socioeconômicos",
			Description: "Situação social e financeira",
			Fields: []string{
				FieldRendaFamiliar, FieldMembrosFamilia, FieldDespesasMensais, FieldEscolaridade,
				FieldSituacaoMoradia, FieldPossuiBeneficioGov, FieldQualBeneficio, FieldObservacoes,
			},
		},
	}
	s, err := NewSchema(fields, steps)
	if err != nil {
		panic(err)
	}
	return s
}
