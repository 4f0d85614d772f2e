package extract

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icsr-triage-engine/internal/domain"
	"github.com/icsr-triage-engine/internal/meddra"
)

const sampleICSR = `<?xml version="1.0" encoding="UTF-8"?>
<MCCI_IN200100UV01 xmlns="urn:hl7-org:v3">
  <creationTime value="20240315"/>
  <id root="2.16.840.1.113883.3.989.2.1.3.1" extension="IN-CELIX-2024-0001"/>
  <investigationEvent>
    <effectiveTime>
      <low value="20240312"/>
    </effectiveTime>
  </investigationEvent>
  <author>
    <asQualifiedEntity>
      <code code="1" codeSystem="2.16.840.1.113883.3.989.2.1.1.6"/>
    </asQualifiedEntity>
  </author>
  <primaryRole>
    <player1>
      <administrativeGenderCode code="2" codeSystem="1.0.5218"/>
    </player1>
  </primaryRole>
  <subjectOf2>
    <observation>
      <code displayName="age"/>
      <value value="54" unit="a"/>
    </observation>
  </subjectOf2>
  <subjectOf2>
    <observation>
      <code displayName="bodyWeight"/>
      <value value="72" unit="kg"/>
    </observation>
  </subjectOf2>
  <component>
    <substanceAdministration>
      <id root="d1"/>
      <text>250 mg once daily with prednisone</text>
      <consumable>
        <instanceOfKind>
          <kindOfProduct>
            <name>Abiraterone [JANSSEN]</name>
            <formCode>
              <originalText>Film-coated tablet</originalText>
            </formCode>
            <lotNumberText>LOT-4471</lotNumberText>
          </kindOfProduct>
        </instanceOfKind>
      </consumable>
      <effectiveTime>
        <low value="20240101"/>
        <high value="20240310"/>
      </effectiveTime>
      <doseQuantity value="250" unit="mg"/>
    </substanceAdministration>
  </component>
  <component>
    <substanceAdministration>
      <id root="d2"/>
      <consumable>
        <instanceOfKind>
          <kindOfProduct>
            <name>Paracetamol</name>
          </kindOfProduct>
        </instanceOfKind>
      </consumable>
    </substanceAdministration>
  </component>
  <component>
    <causalityAssessment>
      <value code="1" codeSystem="2.16.840.1.113883.3.989.2.1.1.20"/>
      <subject2>
        <productUseReference>
          <id root="d1"/>
        </productUseReference>
      </subject2>
    </causalityAssessment>
  </component>
  <component>
    <observation>
      <code code="29" displayName="reaction"/>
      <value code="10028813" codeSystem="2.16.840.1.113883.6.163"/>
      <outboundRelationship2>
        <observation>
          <code displayName="requiresInpatientHospitalization"/>
          <value value="true"/>
        </observation>
      </outboundRelationship2>
      <outboundRelationship2>
        <observation>
          <code displayName="resultsInDeath"/>
          <value value="false"/>
        </observation>
      </outboundRelationship2>
      <outboundRelationship2>
        <observation>
          <code displayName="outcome"/>
          <value code="2"/>
        </observation>
      </outboundRelationship2>
    </observation>
  </component>
  <component>
    <observationEvent>
      <code code="PAT_ADV_EVNT"/>
      <text>
        Patient developed severe nausea after two
        months of treatment.
      </text>
    </observationEvent>
  </component>
</MCCI_IN200100UV01>`

func testMapping() *meddra.Mapping {
	return meddra.NewMapping([][3]string{
		{"10028813", "Nausea", "Nausea"},
		{"10020407", "Hot flushes", "Hot flush"},
	})
}

func newTestExtractor() *Extractor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger, testMapping())
}

func TestExtract(t *testing.T) {
	x := newTestExtractor()

	rec, err := x.Extract("sample.xml", []byte(sampleICSR))
	require.NoError(t, err)

	assert.Equal(t, "IN-CELIX-2024-0001", rec.SafetyReportID)
	assert.Equal(t, "15-Mar-2024", rec.TransmissionDate)
	assert.Equal(t, "12-Mar-2024", rec.ReceiptDate)
	assert.Equal(t, "Physician", rec.Reporter.Qualification)
	assert.Equal(t, "Female", rec.Patient.Sex)
	assert.Equal(t, "54 a", rec.Patient.Age)
	assert.Equal(t, "72 kg", rec.Patient.Weight)

	require.Len(t, rec.Drugs, 2)
	abi := rec.Drugs[0]
	assert.Equal(t, "Abiraterone [JANSSEN]", abi.RawName)
	assert.Equal(t, domain.SUSPECT, abi.Role)
	assert.Equal(t, "250 mg", abi.Dose)
	assert.Equal(t, "250 mg once daily with prednisone", abi.DosageText)
	assert.Equal(t, "Film-coated tablet", abi.Formulation)
	assert.Equal(t, "LOT-4471", abi.LotNumber)
	assert.Equal(t, "01-Jan-2024", abi.StartDate)
	assert.Equal(t, "10-Mar-2024", abi.StopDate)
	assert.Equal(t, domain.CONCOMITANT, rec.Drugs[1].Role)

	require.Len(t, rec.Reactions, 1)
	ev := rec.Reactions[0]
	assert.Equal(t, "10028813", ev.LLTCode)
	assert.Equal(t, "Nausea", ev.Term)
	assert.Equal(t, []domain.SeriousnessCriterion{domain.HOSPITALIZATION}, ev.Seriousness)
	assert.Equal(t, "Recovering/Resolving", ev.Outcome)

	assert.Equal(t, "Patient developed severe nausea after two months of treatment.", rec.Narrative)
}

func TestExtract_MalformedXML(t *testing.T) {
	x := newTestExtractor()

	_, err := x.Extract("broken.xml", []byte("<MCCI_IN200100UV01 xmlns=\"urn:hl7-org:v3\">\n<id root="))
	require.Error(t, err)

	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken.xml", pe.Source)
	assert.Greater(t, pe.Line, 0)
}

func TestExtract_WrongNamespace(t *testing.T) {
	x := newTestExtractor()

	_, err := x.Extract("other.xml", []byte(`<report xmlns="urn:example:other"><id/></report>`))
	require.Error(t, err)

	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "report", pe.Element)
}

func TestExtract_MissingElementsAreAbsentFields(t *testing.T) {
	x := newTestExtractor()

	rec, err := x.Extract("minimal.xml", []byte(`<MCCI_IN200100UV01 xmlns="urn:hl7-org:v3"/>`))
	require.NoError(t, err)

	assert.Empty(t, rec.SafetyReportID)
	assert.Empty(t, rec.Patient.Sex)
	assert.Empty(t, rec.Reporter.Qualification)
	assert.Empty(t, rec.Drugs)
	assert.Empty(t, rec.Reactions)
	assert.Empty(t, rec.Narrative)
}

func TestExtract_ReceiptDateFallsBackToTransmissionDate(t *testing.T) {
	x := newTestExtractor()

	doc := `<MCCI_IN200100UV01 xmlns="urn:hl7-org:v3">
  <creationTime value="20240315"/>
</MCCI_IN200100UV01>`

	rec, err := x.Extract("noreceipt.xml", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "15-Mar-2024", rec.ReceiptDate)
}

func TestExtract_UnmappedLLTCodeKeptAsTerm(t *testing.T) {
	x := newTestExtractor()

	doc := `<MCCI_IN200100UV01 xmlns="urn:hl7-org:v3">
  <observation>
    <code displayName="reaction"/>
    <value code="99999999"/>
  </observation>
</MCCI_IN200100UV01>`

	rec, err := x.Extract("unmapped.xml", []byte(doc))
	require.NoError(t, err)
	require.Len(t, rec.Reactions, 1)
	assert.Equal(t, "99999999", rec.Reactions[0].Term)
	assert.Empty(t, rec.Reactions[0].PTTerm)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Full date", "20240315", "15-Mar-2024"},
		{"Date with time suffix", "20240315103000", "15-Mar-2024"},
		{"Year and month", "202403", "Mar-2024"},
		{"Year only", "2024", "2024"},
		{"Unparsable kept verbatim", "15/03/2024", "15/03/2024"},
		{"Empty", "", ""},
		{"Whitespace trimmed", " 20240315 ", "15-Mar-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDate(tt.in))
		})
	}
}
