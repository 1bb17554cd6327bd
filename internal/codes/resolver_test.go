package codes_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae-processor/internal/codes"
)

func TestResolve_KnownCodes(t *testing.T) {
	r := codes.NewResolver()

	tests := []struct {
		table codes.TableID
		raw   string
		want  string
	}{
		{codes.PaymentMeans, "01", "Al contado"},
		{codes.PaymentMeans, "04", "Transferencia"},
		{codes.PaymentMeans, "19", "Pago mediante tarjeta"},
		{codes.TaxType, "01", "IVA"},
		{codes.TaxType, "04", "IRPF"},
		{codes.CentreRole, "01", "Oficina contable"},
		{codes.CentreRole, "03", "Unidad tramitadora"},
		{codes.InvoiceClass, "OR", "Original Rectificativa"},
		{codes.DocumentType, "FC", "Factura completa u ordinaria"},
	}

	for _, tt := range tests {
		t.Run(string(tt.table)+"/"+tt.raw, func(t *testing.T) {
			c := r.Resolve(tt.table, tt.raw)
			assert.True(t, c.Known)
			assert.Equal(t, tt.raw, c.Code)
			assert.Equal(t, tt.want, c.Text)
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r := codes.NewResolver()
	first := r.Resolve(codes.TaxType, "03")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Resolve(codes.TaxType, "03"))
	}
}

func TestResolve_UnknownCodeFallback(t *testing.T) {
	r := codes.NewResolver()

	for _, raw := range []string{"99", "", "ZZ", "04 bis"} {
		c := r.Resolve(codes.PaymentMeans, raw)
		assert.False(t, c.Known)
		assert.Equal(t, "code: "+raw, c.Text)

		back, ok := codes.RawFromFallback(c.Text)
		require.True(t, ok)
		assert.Equal(t, raw, back)
	}
}

func TestResolve_UnknownTable(t *testing.T) {
	c := codes.NewResolver().Resolve("no-such-table", "01")
	assert.False(t, c.Known)
	assert.Equal(t, "code: 01", c.Text)
}

func TestResolve_TrimsRawCode(t *testing.T) {
	c := codes.NewResolver().Resolve(codes.PaymentMeans, " 04\n")
	assert.True(t, c.Known)
	assert.Equal(t, "04", c.Code)
}

func TestRawFromFallback_NotAFallback(t *testing.T) {
	_, ok := codes.RawFromFallback("Transferencia")
	assert.False(t, ok)
}

func TestWithOverrides(t *testing.T) {
	base := codes.NewResolver()
	custom := base.WithOverrides(map[codes.TableID]map[string]string{
		codes.PaymentMeans: {"04": "Transferencia bancaria", "20": "Bizum"},
		"area":             {"A1": "Intervención"},
	})

	assert.Equal(t, "Transferencia bancaria", custom.Resolve(codes.PaymentMeans, "04").Text)
	assert.Equal(t, "Bizum", custom.Resolve(codes.PaymentMeans, "20").Text)
	assert.Equal(t, "Intervención", custom.Resolve("area", "A1").Text)

	// the base resolver is untouched
	assert.Equal(t, "Transferencia", base.Resolve(codes.PaymentMeans, "04").Text)
	assert.False(t, base.Resolve(codes.PaymentMeans, "20").Known)
}

func TestTables(t *testing.T) {
	r := codes.NewResolver()
	tables := r.Tables()
	require.Len(t, tables, 5)

	tax, ok := r.Table(codes.TaxType)
	require.True(t, ok)
	assert.Equal(t, codes.Version, tax.Version)
	tax.Entries["01"] = "mutated"
	assert.Equal(t, "IVA", r.Resolve(codes.TaxType, "01").Text, "Table returns a copy")

	keys := codes.SortedCodes(tax)
	assert.Equal(t, "01", keys[0])
	assert.Equal(t, "29", keys[len(keys)-1])
}

func TestResolve_Concurrent(t *testing.T) {
	r := codes.NewResolver()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Recibo", r.Resolve(codes.PaymentMeans, "03").Text)
		}()
	}
	wg.Wait()
}
