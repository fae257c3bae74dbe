package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/notaryops/travel-permits/internal/model"
)

// templateFile is looked up inside TemplateDir; when the file is absent
// the built-in default text below is used so a fresh install can render
// documents without any assets on disk.
const templateFile = "permiso_viaje.tmpl"

// FileRenderer renders a permit into a plain-text legal document on disk
// and returns the relative path of the generated file.  The file name
// carries the correlative and the version (NSC-2025-0001_v2.txt) so
// regenerated documents never overwrite the artifact of an earlier
// version.
type FileRenderer struct {
	TemplateDir string
	DocumentDir string
	NotaryName  string
	OfficeCity  string
	Now         func() time.Time // injectable clock; defaults to time.Now
}

func NewFileRenderer(templateDir, documentDir, notaryName, officeCity string) *FileRenderer {
	return &FileRenderer{
		TemplateDir: templateDir,
		DocumentDir: documentDir,
		NotaryName:  notaryName,
		OfficeCity:  officeCity,
		Now:         time.Now,
	}
}

// Render produces the document for the given permit version.
func (r *FileRenderer) Render(p *model.Permit) (string, error) {
	tmpl, err := r.loadTemplate()
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	ctx := BuildContext(p, r.NotaryName, r.OfficeCity, now)

	if err := os.MkdirAll(r.DocumentDir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	name := fmt.Sprintf("%s_v%d.txt", p.Correlative(), p.Version)
	path := filepath.Join(r.DocumentDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := tmpl.Execute(f, ctx); err != nil {
		f.Close()
		os.Remove(path) // do not leave a half-written document behind
		return "", fmt.Errorf("render document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func (r *FileRenderer) loadTemplate() (*template.Template, error) {
	if r.TemplateDir != "" {
		path := filepath.Join(r.TemplateDir, templateFile)
		if _, err := os.Stat(path); err == nil {
			return template.New(templateFile).Option("missingkey=zero").ParseFiles(path)
		}
	}
	return template.New(templateFile).Option("missingkey=zero").Parse(defaultTemplate)
}

// defaultTemplate mirrors the printed notarial form.  Gender and plural
// agreement come pre-resolved from the context builder, so the template
// itself stays free of conditionals beyond structural ones.
var defaultTemplate = strings.TrimLeft(`
PERMISO DE VIAJE {{.TIPO_VIAJE}} N° {{.NUMERO_PERMISO}}
================================================================

EN LA CIUDAD DE {{.CIUDAD}}, A LOS {{.DIA_EN_LETRAS}} DÍAS DEL MES DE
{{.MES_EN_LETRAS}} DEL AÑO {{.ANIO_EN_LETRAS}}, ANTE MÍ,
{{.NOTARIO_NOMBRE}}, COMPARECEN:

{{if .PADRE_NOMBRE}}DON {{.PADRE_NOMBRE}}, IDENTIFICADO CON DNI N° {{.PADRE_DNI}},
DE ESTADO CIVIL {{.PADRE_ESTADO_CIVIL}}, CON DOMICILIO EN {{.PADRE_DIRECCION}},
DISTRITO DE {{.PADRE_DISTRITO}}, PROVINCIA DE {{.PADRE_PROVINCIA}},
DEPARTAMENTO DE {{.PADRE_DEPARTAMENTO}}.
{{end}}{{if .MADRE_NOMBRE}}DOÑA {{.MADRE_NOMBRE}}, IDENTIFICADA CON DNI N° {{.MADRE_DNI}},
DE ESTADO CIVIL {{.MADRE_ESTADO_CIVIL}}, CON DOMICILIO EN {{.MADRE_DIRECCION}},
DISTRITO DE {{.MADRE_DISTRITO}}, PROVINCIA DE {{.MADRE_PROVINCIA}},
DEPARTAMENTO DE {{.MADRE_DEPARTAMENTO}}.
{{end}}
QUIENES OTORGAN PERMISO DE VIAJE A {{.ART_MENOR}} {{.MENOR_TX}}
{{.MENOR_NOMBRE}}, IDENTIFICAD{{if eq .SEXO_MENOR "F"}}A{{else}}O{{end}} CON DNI N° {{.MENOR_DNI}},
DE {{.MENOR_EDAD_LETRAS}} ({{.MENOR_EDAD_NUMERO}}) AÑOS DE EDAD,
{{if .HERMANOS_COUNT}}EN COMPAÑÍA DE SUS HERMANOS {{.HERMANOS_TX}},
{{end}}PARA VIAJAR DE {{.ORIGEN}} A {{.DESTINO}} POR VÍA {{.VIA_TX}}{{if .EMPRESA}}
EN LA EMPRESA {{.EMPRESA}}{{end}},
SALIENDO EL {{.FECHA_SALIDA_TX}}{{if .ES_IDA_Y_VUELTA}} Y RETORNANDO EL {{.FECHA_RETORNO_TX}}{{end}}.

MOTIVO DEL VIAJE: {{.MOTIVO_VIAJE}}{{if .CIUDAD_EVENTO}} — {{.CIUDAD_EVENTO}}{{end}}{{if .FECHA_EVENTO}}, {{.FECHA_EVENTO}}{{end}}{{if .ORGANIZADOR}}, ORGANIZADO POR {{.ORGANIZADOR}}{{end}}.

OBSERVACIONES:
{{if .VIAJA_SOLO}}{{.ART_MENOR}} MENOR VIAJA {{.SOLO_A}} Y SERÁ {{.REC_TX}}
{{if .PERSONA_RECEPCION}}POR {{.PERSONA_RECEPCION}} (DNI N° {{.DNI_PERSONA_RECEPCION}}) {{end}}EN EL LUGAR DE DESTINO.
{{else if .ACOMP_COUNT}}VIAJA EN COMPAÑÍA DE {{.POSESIVO}} {{.ROL_ACOMPANANTE}}:
{{if .ACOMP1_NOMBRE}}  - {{.ACOMP1_NOMBRE}} (DNI N° {{.ACOMP1_DNI}})
{{end}}{{if .ACOMP2_NOMBRE}}  - {{.ACOMP2_NOMBRE}} (DNI N° {{.ACOMP2_DNI}})
{{end}}QUIEN{{.SUJ_PL}} SER{{if .SUJ_PL}}ÁN{{else}}Á{{end}} RESPONSABLE{{.SUF_PL}} DE {{.ART_MENOR}} MENOR DURANTE EL VIAJE.
{{end}}
{{if eq .TIPO_VIAJE "INTERNACIONAL"}}
_________________________          _________________________
{{.PADRE_NOMBRE}}                  {{.MADRE_NOMBRE}}
DNI N° {{.PADRE_DNI}}              DNI N° {{.MADRE_DNI}}
{{else}}
_________________________
{{.FIRMA_NOMBRE}}
DNI N° {{.FIRMA_DNI}}
{{end}}
`, "\n")
