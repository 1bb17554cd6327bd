package codes

// TableID identifies a code table
type TableID string

const (
	PaymentMeans TableID = "payment-means"
	TaxType      TableID = "tax-type"
	CentreRole   TableID = "administrative-role"
	InvoiceClass TableID = "invoice-class"
	DocumentType TableID = "invoice-document-type"
)

// Version of the bundled tables (Facturae 3.2.2 schema enumerations)
const Version = "3.2.2"

// Table is a fixed mapping from raw codes to display text
type Table struct {
	ID      TableID           `json:"id" mapstructure:"id"`
	Version string            `json:"version" mapstructure:"version"`
	Entries map[string]string `json:"entries" mapstructure:"entries"`
}

// DefaultTables returns the bundled code tables. Each call returns fresh maps.
func DefaultTables() []Table {
	return []Table{
		{
			ID:      PaymentMeans,
			Version: Version,
			Entries: map[string]string{
				"01": "Al contado",
				"02": "Recibo domiciliado",
				"03": "Recibo",
				"04": "Transferencia",
				"05": "Letra aceptada",
				"06": "Crédito documentario",
				"07": "Contrato adjudicación",
				"08": "Letra de cambio",
				"09": "Pagaré a la orden",
				"10": "Pagaré no a la orden",
				"11": "Cheque",
				"12": "Reposición",
				"13": "Especiales",
				"14": "Compensación",
				"15": "Giro postal",
				"16": "Cheque conformado",
				"17": "Cheque bancario",
				"18": "Pago contra reembolso",
				"19": "Pago mediante tarjeta",
			},
		},
		{
			ID:      TaxType,
			Version: Version,
			Entries: map[string]string{
				"01": "IVA",
				"02": "IPSI",
				"03": "IGIC",
				"04": "IRPF",
				"05": "Otro",
				"06": "ITPAJD",
				"07": "IE",
				"08": "RA",
				"09": "IGTECM",
				"10": "IECDPCAC",
				"11": "IIIMAB",
				"12": "ICIO",
				"13": "IMVDN",
				"14": "IMSN",
				"15": "IMGSN",
				"16": "IMPN",
				"17": "REIVA",
				"18": "REIGIC",
				"19": "REIPSI",
				"20": "IPS",
				"21": "RLEA",
				"22": "IVPEE",
				"23": "IPCNG",
				"24": "IACNG",
				"25": "IDEC",
				"26": "ILTCAC",
				"27": "IGFEI",
				"28": "IRNR",
				"29": "ISS",
			},
		},
		{
			ID:      CentreRole,
			Version: Version,
			Entries: map[string]string{
				"01": "Oficina contable",
				"02": "Órgano gestor",
				"03": "Unidad tramitadora",
				"04": "Órgano proponente",
			},
		},
		{
			ID:      InvoiceClass,
			Version: Version,
			Entries: map[string]string{
				"OO": "Original",
				"OR": "Original Rectificativa",
				"OC": "Original Recapitulativa",
				"CO": "Duplicado Original",
				"CR": "Duplicado Rectificativa",
				"CC": "Duplicado Recapitulativa",
			},
		},
		{
			ID:      DocumentType,
			Version: Version,
			Entries: map[string]string{
				"FC": "Factura completa u ordinaria",
				"FA": "Factura simplificada",
				"AF": "Autofactura",
			},
		},
	}
}
