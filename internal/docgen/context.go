package docgen

import (
	"strings"
	"time"

	"github.com/notaryops/travel-permits/internal/model"
)

// Vars is the variable set handed to the legal-text template.  Keys keep
// the upper-case Spanish placeholder names used by the notarial template
// so a clerk can cross-check the rendered output against the printed
// form field by field.
type Vars map[string]any

// BuildContext flattens a permit into the template variable set.  The
// notary name and office city come from configuration, not from the
// record; now fixes "today" for the header so rendering is deterministic
// in tests.
func BuildContext(p *model.Permit, notaryName, officeCity string, now time.Time) Vars {
	age := AgeAt(p.Minor.BirthDate, now)

	v := Vars{
		// Header
		"CIUDAD":         strings.ToUpper(officeCity),
		"NOTARIO_NOMBRE": strings.ToUpper(notaryName),
		"ANIO":           p.Year,
		"CORRELATIVO":    p.SequenceNumber,
		"NUMERO_PERMISO": p.Correlative(),

		// Parents
		"PADRE_NOMBRE":       strings.ToUpper(p.Father.Name),
		"PADRE_DNI":          p.Father.DocNumber,
		"PADRE_ESTADO_CIVIL": strings.ToUpper(p.Father.CivilStatus),
		"PADRE_DIRECCION":    strings.ToUpper(p.Father.Address),
		"PADRE_DISTRITO":     strings.ToUpper(p.Father.District),
		"PADRE_PROVINCIA":    strings.ToUpper(p.Father.Province),
		"PADRE_DEPARTAMENTO": strings.ToUpper(p.Father.Department),
		"MADRE_NOMBRE":       strings.ToUpper(p.Mother.Name),
		"MADRE_DNI":          p.Mother.DocNumber,
		"MADRE_ESTADO_CIVIL": strings.ToUpper(p.Mother.CivilStatus),
		"MADRE_DIRECCION":    strings.ToUpper(p.Mother.Address),
		"MADRE_DISTRITO":     strings.ToUpper(p.Mother.District),
		"MADRE_PROVINCIA":    strings.ToUpper(p.Mother.Province),
		"MADRE_DEPARTAMENTO": strings.ToUpper(p.Mother.Department),

		// Minor
		"MENOR_NOMBRE":       strings.ToUpper(p.Minor.Name),
		"MENOR_DNI":          p.Minor.DocNumber,
		"MENOR_EDAD_NUMERO":  age,
		"MENOR_EDAD_LETRAS":  NumberToWords(age),
		"SEXO_MENOR":         strings.ToUpper(p.Minor.Sex),
		"MENOR_FECHA_NAC_TX": DateToWords(p.Minor.BirthDate),

		// Travel
		"TIPO_VIAJE":       strings.ToUpper(p.Travel.Kind),
		"ORIGEN":           strings.ToUpper(p.Travel.Origin),
		"DESTINO":          strings.ToUpper(p.Travel.Destination),
		"EMPRESA":          strings.ToUpper(p.Travel.Company),
		"FECHA_SALIDA":     p.Travel.DepartureDate,
		"FECHA_RETORNO":    p.Travel.ReturnDate,
		"FECHA_SALIDA_TX":  DateToWords(p.Travel.DepartureDate),
		"FECHA_RETORNO_TX": DateToWords(p.Travel.ReturnDate),
		"ACOMPANANTE":      strings.ToUpper(p.Travel.Escort),
		"QUIEN_FIRMA":      strings.ToUpper(p.Travel.Signer),
		"VIAJA_SOLO":       strings.EqualFold(p.Travel.Escort, "SOLO"),

		// Motive / event
		"MOTIVO_VIAJE":  strings.ToUpper(p.Motive),
		"CIUDAD_EVENTO": strings.ToUpper(p.EventCity),
		"FECHA_EVENTO":  strings.ToUpper(p.EventDate),
		"ORGANIZADOR":   strings.ToUpper(p.Organizer),
	}

	addTodayVars(v, now)
	addMinorGenderVars(v, p.Minor.Sex)
	addTravelVars(v, p.Travel.DepartureDate, p.Travel.ReturnDate, p.Travel.Vias)
	addCompanionVars(v, p.Companions)
	addReceiverVars(v, p.Receivers)
	addSiblingVars(v, p.Siblings)
	addSignatureVars(v)
	return v
}

// addTodayVars spells out the issuance date for the document header,
// e.g. DIA_EN_LETRAS="OCHO", MES_EN_LETRAS="OCTUBRE",
// ANIO_EN_LETRAS="DOS MIL VEINTICINCO".
func addTodayVars(v Vars, now time.Time) {
	v["DIA_EN_LETRAS"] = NumberToWords(now.Day())
	v["MES_EN_LETRAS"] = MonthName(now.Month())
	v["ANIO_EN_LETRAS"] = NumberToWords(now.Year())
	v["FECHA_HOY_TX"] = DateToWords(now.Format("2006-01-02"))
}

// addMinorGenderVars sets the gender-agreement fragments driven by the
// minor's sex: article, "alone" and "received" forms.
func addMinorGenderVars(v Vars, sex string) {
	if strings.EqualFold(sex, "F") {
		v["ART_MENOR"] = "LA"
		v["MENOR_TX"] = "MENOR"
		v["SOLO_A"] = "SOLA"
		v["REC_TX"] = "RECEPCIONADA"
		return
	}
	v["ART_MENOR"] = "EL"
	v["MENOR_TX"] = "MENOR"
	v["SOLO_A"] = "SOLO"
	v["REC_TX"] = "RECEPCIONADO"
}

// addTravelVars derives round-trip detection and the transport-mode text.
// A return date on or after the departure date marks a round trip; the
// modes are joined with " Y/O " as the legal wording requires.
func addTravelVars(v Vars, depISO, retISO string, vias []string) {
	roundTrip := false
	if depISO != "" && retISO != "" {
		dep, errD := time.Parse("2006-01-02", depISO)
		ret, errR := time.Parse("2006-01-02", retISO)
		if errD == nil && errR == nil && !ret.Before(dep) {
			roundTrip = true
		}
	}
	viaTx := ""
	if len(vias) > 0 {
		viaTx = strings.ToUpper(strings.Join(vias, " Y/O "))
	}
	v["ES_IDA_Y_VUELTA"] = roundTrip
	v["VIA_TX"] = viaTx
}

// addCompanionVars exposes up to two named chaperones plus the plural
// agreement fragments (SU/SUS, QUIEN/QUIENES, SERÁ/SERÁN,
// RESPONSABLE/RESPONSABLES) that depend on how many there are.
func addCompanionVars(v Vars, companions []model.Companion) {
	n := len(companions)
	v["ACOMP_COUNT"] = n
	v["ACOMP1_NOMBRE"] = ""
	v["ACOMP1_DNI"] = ""
	v["ACOMP2_NOMBRE"] = ""
	v["ACOMP2_DNI"] = ""
	if n >= 1 {
		v["ACOMP1_NOMBRE"] = strings.ToUpper(companions[0].Name)
		v["ACOMP1_DNI"] = companions[0].DocNumber
		v["ROL_ACOMPANANTE"] = strings.ToUpper(companions[0].Role)
	}
	if n >= 2 {
		v["ACOMP2_NOMBRE"] = strings.ToUpper(companions[1].Name)
		v["ACOMP2_DNI"] = companions[1].DocNumber
	}
	if n >= 2 {
		v["POSESIVO"] = "SUS"
		v["SUJ_PL"] = "ES" // QUIEN -> QUIENES
		v["VERB_PL"] = "ÁN" // SERÁ -> SERÁN
		v["SUF_PL"] = "S"  // RESPONSABLE -> RESPONSABLES
	} else {
		v["POSESIVO"] = "SU"
		v["SUJ_PL"] = ""
		v["VERB_PL"] = ""
		v["SUF_PL"] = ""
	}
	v["CONJ"] = "Y"
}

func addReceiverVars(v Vars, receivers []model.Receiver) {
	v["PERSONA_RECEPCION"] = ""
	v["DNI_PERSONA_RECEPCION"] = ""
	if len(receivers) >= 1 {
		v["PERSONA_RECEPCION"] = strings.ToUpper(receivers[0].Name)
		v["DNI_PERSONA_RECEPCION"] = receivers[0].DocNumber
	}
}

// addSiblingVars builds the one-line enumeration of travelling siblings
// used in the observations block, e.g. "ANA PÉREZ (DNI 12345678) Y LUIS
// PÉREZ (DNI 87654321)".
func addSiblingVars(v Vars, siblings []model.Sibling) {
	v["HERMANOS_COUNT"] = len(siblings)
	parts := make([]string, 0, len(siblings))
	for _, s := range siblings {
		docType := s.DocType
		if docType == "" {
			docType = "DNI"
		}
		parts = append(parts, strings.ToUpper(s.Name)+" ("+strings.ToUpper(docType)+" "+s.DocNumber+")")
	}
	v["HERMANOS_TX"] = strings.Join(parts, " Y ")
}

// addSignatureVars resolves who signs the document.  International
// permits are signed by both parents and the template reads the PADRE_*
// and MADRE_* variables directly.  National permits carry a single
// FIRMA_NOMBRE/FIRMA_DNI pair: the designated signer when valid,
// otherwise the accompanying parent, otherwise whichever parent has a
// complete identity on record.
func addSignatureVars(v Vars) {
	if v["TIPO_VIAJE"] == model.TravelInternational {
		return
	}
	str := func(key string) string { s, _ := v[key].(string); return s }
	set := func(name, dni string) {
		v["FIRMA_NOMBRE"] = name
		v["FIRMA_DNI"] = dni
	}
	padreOK := str("PADRE_NOMBRE") != "" && str("PADRE_DNI") != ""
	madreOK := str("MADRE_NOMBRE") != "" && str("MADRE_DNI") != ""

	switch {
	case str("QUIEN_FIRMA") == "PADRE" && padreOK:
		set(str("PADRE_NOMBRE"), str("PADRE_DNI"))
	case str("QUIEN_FIRMA") == "MADRE" && madreOK:
		set(str("MADRE_NOMBRE"), str("MADRE_DNI"))
	case str("ACOMPANANTE") == "MADRE" && madreOK:
		set(str("MADRE_NOMBRE"), str("MADRE_DNI"))
	case str("ACOMPANANTE") == "PADRE" && padreOK:
		set(str("PADRE_NOMBRE"), str("PADRE_DNI"))
	case padreOK:
		set(str("PADRE_NOMBRE"), str("PADRE_DNI"))
	case madreOK:
		set(str("MADRE_NOMBRE"), str("MADRE_DNI"))
	}
}
