// Package testutil holds Facturae fixtures shared by package tests.
package testutil

import "strings"

// MinimalInvoice is a bare Facturae 3.2.2 document with one line, one
// 21% tax output, no withholding and no surcharge.
const MinimalInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<fe:Facturae xmlns:fe="http://www.facturae.gob.es/formato/Versiones/Facturaev3_2_2.xml">
  <FileHeader>
    <SchemaVersion>3.2.2</SchemaVersion>
    <Modality>I</Modality>
    <InvoiceIssuerType>EM</InvoiceIssuerType>
    <Batch>
      <BatchIdentifier>B12345678F-001</BatchIdentifier>
      <InvoicesCount>1</InvoicesCount>
      <InvoiceCurrencyCode>EUR</InvoiceCurrencyCode>
    </Batch>
  </FileHeader>
  <Parties>
    <SellerParty>
      <TaxIdentification>
        <PersonTypeCode>J</PersonTypeCode>
        <ResidenceTypeCode>R</ResidenceTypeCode>
        <TaxIdentificationNumber>B12345678</TaxIdentificationNumber>
      </TaxIdentification>
      <LegalEntity>
        <CorporateName>Servicios Ejemplo S.L.</CorporateName>
        <AddressInSpain>
          <Address>Calle Mayor 1</Address>
          <PostCode>28013</PostCode>
          <Town>Madrid</Town>
          <Province>Madrid</Province>
          <CountryCode>ESP</CountryCode>
        </AddressInSpain>
      </LegalEntity>
    </SellerParty>
    <BuyerParty>
      <TaxIdentification>
        <PersonTypeCode>J</PersonTypeCode>
        <ResidenceTypeCode>R</ResidenceTypeCode>
        <TaxIdentificationNumber>P2800000A</TaxIdentificationNumber>
      </TaxIdentification>
      <AdministrativeCentres>
        <AdministrativeCentre>
          <CentreCode>L01280796</CentreCode>
          <RoleTypeCode>01</RoleTypeCode>
          <Name>Intervención General</Name>
        </AdministrativeCentre>
        <AdministrativeCentre>
          <CentreCode>L01280797</CentreCode>
          <RoleTypeCode>02</RoleTypeCode>
          <Name>Área de Hacienda</Name>
        </AdministrativeCentre>
        <AdministrativeCentre>
          <CentreCode>L01280798</CentreCode>
          <RoleTypeCode>03</RoleTypeCode>
          <Name>Servicio de Contratación</Name>
        </AdministrativeCentre>
      </AdministrativeCentres>
      <LegalEntity>
        <CorporateName>Ayuntamiento de Ejemplo</CorporateName>
        <AddressInSpain>
          <Address>Plaza de la Villa 5</Address>
          <PostCode>28005</PostCode>
          <Town>Madrid</Town>
          <Province>Madrid</Province>
          <CountryCode>ESP</CountryCode>
        </AddressInSpain>
      </LegalEntity>
    </BuyerParty>
  </Parties>
  <Invoices>
    <Invoice>
      <InvoiceHeader>
        <InvoiceNumber>0001</InvoiceNumber>
        <InvoiceDocumentType>FC</InvoiceDocumentType>
        <InvoiceClass>OO</InvoiceClass>
      </InvoiceHeader>
      <InvoiceIssueData>
        <IssueDate>2024-03-15</IssueDate>
        <InvoiceCurrencyCode>EUR</InvoiceCurrencyCode>
        <TaxCurrencyCode>EUR</TaxCurrencyCode>
        <LanguageName>es</LanguageName>
      </InvoiceIssueData>
      <TaxesOutputs>
        <Tax>
          <TaxTypeCode>01</TaxTypeCode>
          <TaxRate>21.00</TaxRate>
          <TaxableBase>
            <TotalAmount>100.00</TotalAmount>
          </TaxableBase>
          <TaxAmount>
            <TotalAmount>21.00</TotalAmount>
          </TaxAmount>
        </Tax>
      </TaxesOutputs>
      <InvoiceTotals>
        <TotalGrossAmount>100.00</TotalGrossAmount>
        <TotalGeneralDiscounts>0.00</TotalGeneralDiscounts>
        <TotalGeneralSurcharges>0.00</TotalGeneralSurcharges>
        <TotalGrossAmountBeforeTaxes>100.00</TotalGrossAmountBeforeTaxes>
        <TotalTaxOutputs>21.00</TotalTaxOutputs>
        <TotalTaxesWithheld>0.00</TotalTaxesWithheld>
        <InvoiceTotal>121.00</InvoiceTotal>
        <TotalOutstandingAmount>121.00</TotalOutstandingAmount>
        <TotalExecutableAmount>121.00</TotalExecutableAmount>
      </InvoiceTotals>
      <Items>
        <InvoiceLine>
          <ItemDescription>Servicio A</ItemDescription>
          <Quantity>1</Quantity>
          <UnitOfMeasure>01</UnitOfMeasure>
          <UnitPriceWithoutTax>100.00</UnitPriceWithoutTax>
          <TotalCost>100.00</TotalCost>
          <GrossAmount>100.00</GrossAmount>
          <TaxesOutputs>
            <Tax>
              <TaxTypeCode>01</TaxTypeCode>
              <TaxRate>21.00</TaxRate>
              <TaxableBase>
                <TotalAmount>100.00</TotalAmount>
              </TaxableBase>
            </Tax>
          </TaxesOutputs>
        </InvoiceLine>
      </Items>
      <PaymentDetails>
        <Installment>
          <InstallmentDueDate>2024-04-15</InstallmentDueDate>
          <InstallmentAmount>121.00</InstallmentAmount>
          <PaymentMeans>04</PaymentMeans>
          <AccountToBeCredited>
            <IBAN>ES9121000418450200051332</IBAN>
          </AccountToBeCredited>
        </Installment>
      </PaymentDetails>
    </Invoice>
  </Invoices>
</fe:Facturae>
`

// FullInvoice exercises every optional block: series code, invoicing
// period, two tax rates, equivalence surcharge, IRPF withholding, line
// charges and discounts, two installments (the second without IBAN),
// an individual buyer with an overseas address, a third party and
// legal literals.
const FullInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<fe:Facturae xmlns:fe="http://www.facturae.gob.es/formato/Versiones/Facturaev3_2_2.xml">
  <FileHeader>
    <SchemaVersion>3.2.2</SchemaVersion>
    <Modality>I</Modality>
    <InvoiceIssuerType>TE</InvoiceIssuerType>
    <ThirdParty>
      <TaxIdentification>
        <PersonTypeCode>J</PersonTypeCode>
        <ResidenceTypeCode>R</ResidenceTypeCode>
        <TaxIdentificationNumber>A87654321</TaxIdentificationNumber>
      </TaxIdentification>
      <LegalEntity>
        <CorporateName>Gestoría Tercera S.A.</CorporateName>
      </LegalEntity>
    </ThirdParty>
    <Batch>
      <BatchIdentifier>B12345678F-002</BatchIdentifier>
      <InvoicesCount>1</InvoicesCount>
      <InvoiceCurrencyCode>EUR</InvoiceCurrencyCode>
    </Batch>
  </FileHeader>
  <Parties>
    <SellerParty>
      <TaxIdentification>
        <PersonTypeCode>F</PersonTypeCode>
        <ResidenceTypeCode>R</ResidenceTypeCode>
        <TaxIdentificationNumber>12345678Z</TaxIdentificationNumber>
      </TaxIdentification>
      <Individual>
        <Name>María</Name>
        <FirstSurname>García</FirstSurname>
        <SecondSurname>López</SecondSurname>
        <AddressInSpain>
          <Address>Avenida del Puerto 22</Address>
          <PostCode>46021</PostCode>
          <Town>Valencia</Town>
          <Province>Valencia</Province>
          <CountryCode>ESP</CountryCode>
        </AddressInSpain>
      </Individual>
    </SellerParty>
    <BuyerParty>
      <TaxIdentification>
        <PersonTypeCode>J</PersonTypeCode>
        <ResidenceTypeCode>U</ResidenceTypeCode>
        <TaxIdentificationNumber>FR12345678901</TaxIdentificationNumber>
      </TaxIdentification>
      <AdministrativeCentres>
        <AdministrativeCentre>
          <CentreCode>GE0001</CentreCode>
          <RoleTypeCode>01</RoleTypeCode>
          <Name>Oficina A</Name>
        </AdministrativeCentre>
        <AdministrativeCentre>
          <CentreCode>GE0002</CentreCode>
          <RoleTypeCode>01</RoleTypeCode>
          <Name>Oficina B</Name>
        </AdministrativeCentre>
        <AdministrativeCentre>
          <CentreCode>GE0099</CentreCode>
          <RoleTypeCode>09</RoleTypeCode>
          <CentreDescription>Centro sin rol conocido</CentreDescription>
        </AdministrativeCentre>
      </AdministrativeCentres>
      <LegalEntity>
        <CorporateName>Client Étranger SARL</CorporateName>
        <OverseasAddress>
          <Address>12 Rue de Rivoli</Address>
          <PostCodeAndTown>75001 Paris</PostCodeAndTown>
          <Province>Île-de-France</Province>
          <CountryCode>FRA</CountryCode>
        </OverseasAddress>
      </LegalEntity>
    </BuyerParty>
  </Parties>
  <Invoices>
    <Invoice>
      <InvoiceHeader>
        <InvoiceNumber>0042</InvoiceNumber>
        <InvoiceSeriesCode>2024-A</InvoiceSeriesCode>
        <InvoiceDocumentType>FC</InvoiceDocumentType>
        <InvoiceClass>OR</InvoiceClass>
      </InvoiceHeader>
      <InvoiceIssueData>
        <IssueDate>2024-06-30</IssueDate>
        <InvoicingPeriod>
          <StartDate>2024-06-01</StartDate>
          <EndDate>2024-06-30</EndDate>
        </InvoicingPeriod>
        <InvoiceCurrencyCode>EUR</InvoiceCurrencyCode>
        <TaxCurrencyCode>EUR</TaxCurrencyCode>
        <LanguageName>es</LanguageName>
      </InvoiceIssueData>
      <TaxesOutputs>
        <Tax>
          <TaxTypeCode>01</TaxTypeCode>
          <TaxRate>21.00</TaxRate>
          <TaxableBase>
            <TotalAmount>1000.00</TotalAmount>
          </TaxableBase>
          <TaxAmount>
            <TotalAmount>210.00</TotalAmount>
          </TaxAmount>
          <EquivalenceSurcharge>5.20</EquivalenceSurcharge>
          <EquivalenceSurchargeAmount>
            <TotalAmount>52.00</TotalAmount>
          </EquivalenceSurchargeAmount>
        </Tax>
        <Tax>
          <TaxTypeCode>01</TaxTypeCode>
          <TaxRate>10.00</TaxRate>
          <TaxableBase>
            <TotalAmount>250.50</TotalAmount>
          </TaxableBase>
          <TaxAmount>
            <TotalAmount>25.05</TotalAmount>
          </TaxAmount>
        </Tax>
      </TaxesOutputs>
      <TaxesWithheld>
        <Tax>
          <TaxTypeCode>04</TaxTypeCode>
          <TaxRate>15.00</TaxRate>
          <TaxableBase>
            <TotalAmount>1250.50</TotalAmount>
          </TaxableBase>
          <TaxAmount>
            <TotalAmount>187.58</TotalAmount>
          </TaxAmount>
        </Tax>
      </TaxesWithheld>
      <InvoiceTotals>
        <TotalGrossAmount>1250.50</TotalGrossAmount>
        <TotalGeneralDiscounts>0.00</TotalGeneralDiscounts>
        <TotalGeneralSurcharges>0.00</TotalGeneralSurcharges>
        <TotalGrossAmountBeforeTaxes>1250.50</TotalGrossAmountBeforeTaxes>
        <TotalTaxOutputs>287.05</TotalTaxOutputs>
        <TotalTaxesWithheld>187.58</TotalTaxesWithheld>
        <InvoiceTotal>1349.97</InvoiceTotal>
        <TotalOutstandingAmount>1349.97</TotalOutstandingAmount>
        <TotalExecutableAmount>1349.97</TotalExecutableAmount>
      </InvoiceTotals>
      <Items>
        <InvoiceLine>
          <ItemDescription>Consultoría técnica</ItemDescription>
          <Quantity>10.5</Quantity>
          <UnitOfMeasure>02</UnitOfMeasure>
          <UnitPriceWithoutTax>95.238095</UnitPriceWithoutTax>
          <TotalCost>1000.00</TotalCost>
          <DiscountsAndRebates>
            <Discount>
              <DiscountReason>Pronto pago</DiscountReason>
              <DiscountRate>2.00</DiscountRate>
              <DiscountAmount>20.00</DiscountAmount>
            </Discount>
          </DiscountsAndRebates>
          <Charges>
            <Charge>
              <ChargeReason>Desplazamiento</ChargeReason>
              <ChargeAmount>20.00</ChargeAmount>
            </Charge>
          </Charges>
          <GrossAmount>1000.00</GrossAmount>
          <LineItemPeriod>
            <StartDate>2024-06-01</StartDate>
            <EndDate>2024-06-15</EndDate>
          </LineItemPeriod>
          <AdditionalLineItemInformation>Expediente 2024/117</AdditionalLineItemInformation>
        </InvoiceLine>
        <InvoiceLine>
          <ItemDescription>Material de oficina</ItemDescription>
          <Quantity>3</Quantity>
          <UnitPriceWithoutTax>83.50</UnitPriceWithoutTax>
          <TotalCost>250.50</TotalCost>
          <GrossAmount>250.50</GrossAmount>
        </InvoiceLine>
      </Items>
      <PaymentDetails>
        <Installment>
          <InstallmentDueDate>2024-07-30</InstallmentDueDate>
          <InstallmentAmount>1000.00</InstallmentAmount>
          <PaymentMeans>04</PaymentMeans>
          <AccountToBeCredited>
            <IBAN>ES7620770024003102575766</IBAN>
          </AccountToBeCredited>
        </Installment>
        <Installment>
          <InstallmentDueDate>2024-08-30</InstallmentDueDate>
          <InstallmentAmount>349.97</InstallmentAmount>
          <PaymentMeans>04</PaymentMeans>
        </Installment>
      </PaymentDetails>
      <LegalLiterals>
        <LegalReference>Operación sujeta a retención del IRPF.</LegalReference>
        <LegalReference>  </LegalReference>
      </LegalLiterals>
      <AdditionalData>
        <InvoiceAdditionalInformation>Pedido 77/2024</InvoiceAdditionalInformation>
      </AdditionalData>
    </Invoice>
  </Invoices>
</fe:Facturae>
`

// Replace returns doc with the first occurrence of old replaced by new
func Replace(doc, old, new string) string {
	return strings.Replace(doc, old, new, 1)
}

// Remove deletes the first occurrence of fragment from doc
func Remove(doc, fragment string) string {
	return strings.Replace(doc, fragment, "", 1)
}

// WithLines replaces the Items block of doc with n identical lines
func WithLines(doc string, n int) string {
	start := strings.Index(doc, "<Items>")
	end := strings.Index(doc, "</Items>")
	if start < 0 || end < 0 {
		return doc
	}

	var b strings.Builder
	b.WriteString("<Items>")
	for i := 0; i < n; i++ {
		b.WriteString(`
        <InvoiceLine>
          <ItemDescription>Servicio recurrente</ItemDescription>
          <Quantity>1</Quantity>
          <UnitPriceWithoutTax>10.00</UnitPriceWithoutTax>
          <TotalCost>10.00</TotalCost>
          <GrossAmount>10.00</GrossAmount>
        </InvoiceLine>`)
	}
	b.WriteString("\n      ")
	return doc[:start] + b.String() + doc[end:]
}
