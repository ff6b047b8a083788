// Package xbrl assembles a tagged instance document from a report's
// sections and their disclosure tags.
package xbrl

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"esg-compliance-service/models"
	"esg-compliance-service/taxonomy"
)

const contextRef = "AsOf"

// Assembler builds instance documents for one reporting entity.
type Assembler struct {
	EntityID string
	AsOf     time.Time
}

func NewAssembler(entityID string, asOf time.Time) *Assembler {
	return &Assembler{EntityID: entityID, AsOf: asOf}
}

// Assemble emits the instance document for a report: the fixed preamble,
// one context, the unit declarations, then one fact per tag whose concept
// resolves in the taxonomy. Unresolved tags stay in the report's section
// data but produce no fact. Fact order follows section order, then tag
// order within each section.
func (a *Assembler) Assemble(sections []models.ReportSection) string {
	var b strings.Builder
	a.writePreamble(&b)

	for _, section := range sections {
		for _, tag := range section.XBRLTags {
			concept, ok := taxonomy.Lookup(tag.Concept)
			if !ok {
				continue
			}
			writeFact(&b, section.Title, concept, tag)
		}
	}

	b.WriteString("</xbrli:xbrl>\n")
	return b.String()
}

// writePreamble emits the namespace declarations, schema reference, the
// single instant context and the unit set. This block must stay byte-stable
// across releases; downstream consumers diff against it.
func (a *Assembler) writePreamble(b *strings.Builder) {
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"` + "\n")
	b.WriteString(`            xmlns:esg="http://taxonomy.esg-compliance.io/2024"` + "\n")
	b.WriteString(`            xmlns:iso4217="http://www.xbrl.org/2003/iso4217"` + "\n")
	b.WriteString(`            xmlns:utr="http://www.xbrl.org/2009/utr"` + "\n")
	b.WriteString(`            xmlns:link="http://www.xbrl.org/2003/linkbase"` + "\n")
	b.WriteString(`            xmlns:xlink="http://www.w3.org/1999/xlink">` + "\n")
	b.WriteString(`  <link:schemaRef xlink:type="simple" xlink:href="esg-taxonomy-2024.xsd"/>` + "\n")

	fmt.Fprintf(b, "  <xbrli:context id=%q>\n", contextRef)
	b.WriteString("    <xbrli:entity>\n")
	fmt.Fprintf(b, "      <xbrli:identifier scheme=\"http://esg-compliance.io/entity\">%s</xbrli:identifier>\n", xmlEscape(a.EntityID))
	b.WriteString("    </xbrli:entity>\n")
	b.WriteString("    <xbrli:period>\n")
	fmt.Fprintf(b, "      <xbrli:instant>%s</xbrli:instant>\n", a.AsOf.UTC().Format("2006-01-02"))
	b.WriteString("    </xbrli:period>\n")
	b.WriteString("  </xbrli:context>\n")

	for _, u := range units {
		fmt.Fprintf(b, "  <xbrli:unit id=%q>\n", u.id)
		fmt.Fprintf(b, "    <xbrli:measure>%s</xbrli:measure>\n", u.measure)
		b.WriteString("  </xbrli:unit>\n")
	}
}

// units is the fixed declaration set: energy, mass-based emissions, volume,
// time and pure ratio.
var units = []struct {
	id      string
	measure string
}{
	{"MWh", "utr:MWh"},
	{"tCO2e", "utr:tCO2e"},
	{"m3", "utr:m3"},
	{"hours", "utr:Hour"},
	{"pure", "xbrli:pure"},
}

func writeFact(b *strings.Builder, sectionTitle string, concept taxonomy.Concept, tag models.XBRLTag) {
	fmt.Fprintf(b, "  <!-- %s: %s -->\n", xmlEscape(sectionTitle), xmlEscape(concept.Label))

	unitRef := tag.UnitRef
	if unitRef == "" {
		unitRef = concept.DefaultUnit
	}

	fmt.Fprintf(b, "  <%s contextRef=%q", concept.ID, contextRef)
	if unitRef != "" {
		fmt.Fprintf(b, " unitRef=%q", unitRef)
	}
	if tag.Decimals != nil {
		fmt.Fprintf(b, " decimals=\"%d\"", *tag.Decimals)
	}
	fmt.Fprintf(b, ">%s</%s>\n", xmlEscape(renderValue(tag)), concept.ID)
}

// renderValue normalizes numeric fact values. The decimals hint rounds the
// value; non-numeric values (narrative facts) pass through as-is.
func renderValue(tag models.XBRLTag) string {
	d, err := decimal.NewFromString(strings.TrimSpace(tag.Value))
	if err != nil {
		return tag.Value
	}
	if tag.Decimals != nil && *tag.Decimals >= 0 {
		d = d.Round(int32(*tag.Decimals))
	}
	return d.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
