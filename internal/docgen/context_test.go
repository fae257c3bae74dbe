package docgen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notaryops/travel-permits/internal/model"
)

var refNow = time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC)

func samplePermit() *model.Permit {
	return &model.Permit{
		Year:           2025,
		SequenceNumber: 1,
		State:          model.StateIssued,
		Version:        1,
		PermitContent: model.PermitContent{
			Father: model.Guardian{
				Name: "Erland Paul Sánchez Díaz", DocType: "DNI", DocNumber: "03700891",
				CivilStatus: "Casado", Address: "Calle La Pinta N° 176",
				District: "La Victoria", Province: "Chiclayo", Department: "Lambayeque",
			},
			Mother: model.Guardian{
				Name: "Katya Mariela Mera Villasís", DocType: "DNI", DocNumber: "40443151",
				CivilStatus: "Casada",
			},
			Minor: model.Minor{
				Name: "Ariana Sánchez Mera", DocNumber: "78234154",
				BirthDate: "2012-09-14", Sex: "F",
			},
			Travel: model.Travel{
				Kind: model.TravelInternational, Origin: "Chiclayo", Destination: "Santiago",
				Vias: []string{"Aérea", "Terrestre"}, Company: "Latam",
				DepartureDate: "2025-12-10", ReturnDate: "2025-12-20",
				Escort: "AMBOS",
			},
			Companions: []model.Companion{
				{Role: "PADRES", Name: "Erland Paul Sánchez Díaz", DocNumber: "03700891"},
				{Role: "PADRES", Name: "Katya Mariela Mera Villasís", DocNumber: "40443151"},
			},
			Motive: "Congreso escolar",
		},
	}
}

func TestBuildContextHeaderAndMinor(t *testing.T) {
	v := BuildContext(samplePermit(), "Dr. Alfredo Rivera García", "Chiclayo", refNow)

	assert.Equal(t, "NSC-2025-0001", v["NUMERO_PERMISO"])
	assert.Equal(t, "CHICLAYO", v["CIUDAD"])
	assert.Equal(t, "DR. ALFREDO RIVERA GARCÍA", v["NOTARIO_NOMBRE"])

	// Issuance date spelled out for the header.
	assert.Equal(t, "OCHO", v["DIA_EN_LETRAS"])
	assert.Equal(t, "OCTUBRE", v["MES_EN_LETRAS"])
	assert.Equal(t, "DOS MIL VEINTICINCO", v["ANIO_EN_LETRAS"])

	// Age derived from the birth date against the fixed clock.
	assert.Equal(t, 13, v["MENOR_EDAD_NUMERO"])
	assert.Equal(t, "TRECE", v["MENOR_EDAD_LETRAS"])

	// Female minor drives the agreement fragments.
	assert.Equal(t, "LA", v["ART_MENOR"])
	assert.Equal(t, "SOLA", v["SOLO_A"])
	assert.Equal(t, "RECEPCIONADA", v["REC_TX"])
}

func TestBuildContextMaleMinor(t *testing.T) {
	p := samplePermit()
	p.Minor.Sex = "M"
	v := BuildContext(p, "", "", refNow)
	assert.Equal(t, "EL", v["ART_MENOR"])
	assert.Equal(t, "SOLO", v["SOLO_A"])
	assert.Equal(t, "RECEPCIONADO", v["REC_TX"])
}

func TestBuildContextTravelVars(t *testing.T) {
	v := BuildContext(samplePermit(), "", "", refNow)

	assert.Equal(t, true, v["ES_IDA_Y_VUELTA"])
	assert.Equal(t, "AÉREA Y/O TERRESTRE", v["VIA_TX"])
	assert.Equal(t, "10 DE DICIEMBRE DEL 2025", v["FECHA_SALIDA_TX"])
	assert.Equal(t, "20 DE DICIEMBRE DEL 2025", v["FECHA_RETORNO_TX"])

	// One-way: no return date, not a round trip.
	p := samplePermit()
	p.Travel.ReturnDate = ""
	v = BuildContext(p, "", "", refNow)
	assert.Equal(t, false, v["ES_IDA_Y_VUELTA"])
	assert.Equal(t, "", v["FECHA_RETORNO_TX"])
}

func TestBuildContextPluralAgreement(t *testing.T) {
	// Two companions: plural forms.
	v := BuildContext(samplePermit(), "", "", refNow)
	assert.Equal(t, 2, v["ACOMP_COUNT"])
	assert.Equal(t, "SUS", v["POSESIVO"])
	assert.Equal(t, "ES", v["SUJ_PL"])
	assert.Equal(t, "S", v["SUF_PL"])

	// One companion: singular forms.
	p := samplePermit()
	p.Companions = p.Companions[:1]
	v = BuildContext(p, "", "", refNow)
	assert.Equal(t, "SU", v["POSESIVO"])
	assert.Equal(t, "", v["SUJ_PL"])
	assert.Equal(t, "", v["SUF_PL"])
}

func TestSignatureVarsInternational(t *testing.T) {
	// International permits are signed by both parents; no single-signer
	// variables are produced.
	v := BuildContext(samplePermit(), "", "", refNow)
	_, ok := v["FIRMA_NOMBRE"]
	assert.False(t, ok)
}

func TestSignatureVarsNational(t *testing.T) {
	p := samplePermit()
	p.Travel.Kind = model.TravelNational
	p.Travel.Signer = "MADRE"
	v := BuildContext(p, "", "", refNow)
	assert.Equal(t, "KATYA MARIELA MERA VILLASÍS", v["FIRMA_NOMBRE"])
	assert.Equal(t, "40443151", v["FIRMA_DNI"])

	// No designated signer: the accompanying parent signs.
	p.Travel.Signer = ""
	p.Travel.Escort = "PADRE"
	v = BuildContext(p, "", "", refNow)
	assert.Equal(t, "ERLAND PAUL SÁNCHEZ DÍAZ", v["FIRMA_NOMBRE"])

	// Neither signer nor escort resolvable: first complete parent wins.
	p.Travel.Escort = "TERCERO"
	v = BuildContext(p, "", "", refNow)
	assert.Equal(t, "ERLAND PAUL SÁNCHEZ DÍAZ", v["FIRMA_NOMBRE"])

	// Designated signer missing their document: fall through to the
	// other parent.
	p.Father.DocNumber = ""
	p.Travel.Signer = "PADRE"
	v = BuildContext(p, "", "", refNow)
	assert.Equal(t, "KATYA MARIELA MERA VILLASÍS", v["FIRMA_NOMBRE"])
}

func TestFileRendererWritesVersionedArtifact(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRenderer("", dir, "Dr. Alfredo Rivera García", "Chiclayo")
	r.Now = func() time.Time { return refNow }

	p := samplePermit()
	path, err := r.Render(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "NSC-2025-0001_v1.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "PERMISO DE VIAJE INTERNACIONAL N° NSC-2025-0001")
	assert.Contains(t, text, "ERLAND PAUL SÁNCHEZ DÍAZ")
	assert.Contains(t, text, "KATYA MARIELA MERA VILLASÍS")
	assert.Contains(t, text, "ARIANA SÁNCHEZ MERA")
	assert.Contains(t, text, "TRECE (13) AÑOS")
	assert.Contains(t, text, "AÉREA Y/O TERRESTRE")

	// A new version gets its own file.
	p.Version = 2
	path2, err := r.Render(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "NSC-2025-0001_v2.txt"), path2)
	assert.NotEqual(t, path, path2)
}

func TestFileRendererPrefersTemplateFile(t *testing.T) {
	tmplDir := t.TempDir()
	outDir := t.TempDir()
	custom := "CUSTOM {{.NUMERO_PERMISO}} FOR {{.MENOR_NOMBRE}}\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, templateFile), []byte(custom), 0o644))

	r := NewFileRenderer(tmplDir, outDir, "", "")
	r.Now = func() time.Time { return refNow }

	path, err := r.Render(samplePermit())
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM NSC-2025-0001 FOR ARIANA SÁNCHEZ MERA\n", string(raw))
}
