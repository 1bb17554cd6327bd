package xml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
)

// partyName returns the corporate name of a legal entity or the joined
// name and surnames of an individual.
func partyName(party *etree.Element) (string, model.PersonType, *etree.Element) {
	if le := child(party, "LegalEntity"); le != nil {
		return text(le, "CorporateName"), model.PersonTypeLegalEntity, le
	}
	if ind := child(party, "Individual"); ind != nil {
		var parts []string
		for _, n := range []string{"Name", "FirstSurname", "SecondSurname"} {
			if v := text(ind, n); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " "), model.PersonTypeIndividual, ind
	}
	return "", "", nil
}

func parseAddress(el *etree.Element) model.Address {
	if es := child(el, "AddressInSpain"); es != nil {
		return model.Address{
			Street:      text(es, "Address"),
			PostCode:    text(es, "PostCode"),
			Town:        text(es, "Town"),
			Province:    text(es, "Province"),
			CountryCode: text(es, "CountryCode"),
		}
	}
	if ov := child(el, "OverseasAddress"); ov != nil {
		return model.Address{
			Street:      text(ov, "Address"),
			Town:        text(ov, "PostCodeAndTown"),
			Province:    text(ov, "Province"),
			CountryCode: text(ov, "CountryCode"),
			Overseas:    true,
		}
	}
	return model.Address{}
}

func parseParty(el *etree.Element) model.Party {
	name, kind, holder := partyName(el)
	p := model.Party{
		Name:       name,
		PersonType: kind,
		TaxID:      text(el, "TaxIdentification", "TaxIdentificationNumber"),
	}
	if pt := text(el, "TaxIdentification", "PersonTypeCode"); pt != "" {
		p.PersonType = model.PersonType(pt)
	}
	if holder != nil {
		p.Address = parseAddress(holder)
	}
	return p
}

func extractIssuer(x *extraction) error {
	seller := child(x.root, "Parties", "SellerParty")
	p := parseParty(seller)

	var errs []error
	if p.Name == "" {
		errs = append(errs, model.MissingField(FieldIssuerName))
	}
	if p.TaxID == "" {
		errs = append(errs, model.MissingField(FieldIssuerTaxID))
	}
	x.rec.Issuer = p
	return errors.Join(errs...)
}

func extractReceiver(x *extraction) error {
	buyer := child(x.root, "Parties", "BuyerParty")
	if buyer == nil {
		x.warn("Parties/BuyerParty is missing")
		return nil
	}

	x.rec.Receiver.Party = parseParty(buyer)
	if x.rec.Receiver.Name == "" {
		x.warn("receiver name is missing")
	}

	centres := children(findDescendant(buyer, "AdministrativeCentres"), "AdministrativeCentre")
	for i, c := range centres {
		name := text(c, "Name")
		if name == "" {
			name = text(c, "CentreDescription")
		}
		x.rec.Receiver.Centres = append(x.rec.Receiver.Centres, model.AdministrativeCentre{
			Role:       x.resolve(codes.CentreRole, text(c, "RoleTypeCode"), fmt.Sprintf("Parties/BuyerParty/AdministrativeCentres/AdministrativeCentre[%d]/RoleTypeCode", i+1)),
			CentreCode: text(c, "CentreCode"),
			Name:       name,
		})
	}
	return nil
}

func extractThirdParty(x *extraction) error {
	tp := child(x.root, "FileHeader", "ThirdParty")
	if tp == nil {
		tp = child(x.root, "Parties", "ThirdParty")
	}
	if tp == nil {
		return nil
	}
	x.rec.ThirdParty = model.Some(parseParty(tp))
	return nil
}

func extractFileHeader(x *extraction) error {
	fh := child(x.root, "FileHeader")
	x.rec.FileHeader = model.FileHeader{
		SchemaVersion: text(fh, "SchemaVersion"),
		Modality:      text(fh, "Modality"),
		IssuerType:    text(fh, "InvoiceIssuerType"),
		BatchCurrency: text(fh, "Batch", "InvoiceCurrencyCode"),
	}
	if x.rec.FileHeader.SchemaVersion == "" {
		x.warn("FileHeader/SchemaVersion is missing")
	}
	return nil
}
