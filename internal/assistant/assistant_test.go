package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
)

type recordingLog struct {
	questions []string
	answers   []string
}

func (l *recordingLog) Append(_ context.Context, _ uint64, question, answer string) error {
	l.questions = append(l.questions, question)
	l.answers = append(l.answers, answer)
	return nil
}

func TestAnswerCount(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	a := New(store, nil)

	ans, err := a.Answer(context.Background(), 1, "¿cuántos permisos hay en 2025?")
	require.NoError(t, err)
	assert.Equal(t, "Hay 2 permiso(s) registrados en 2025.", ans)

	ans, err = a.Answer(context.Background(), 1, "cuantos permisos en total")
	require.NoError(t, err)
	assert.Equal(t, "Hay 2 permiso(s) registrados en total.", ans)
}

func TestAnswerByCorrelative(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	a := New(store, nil)

	ans, err := a.Answer(context.Background(), 1, "busca NSC-2025-0001")
	require.NoError(t, err)
	assert.Contains(t, ans, "NSC-2025-0001")
	assert.Contains(t, ans, "ARIANA SÁNCHEZ MERA")

	ans, err = a.Answer(context.Background(), 1, "busca NSC-2025-0099")
	require.NoError(t, err)
	assert.Equal(t, "No existe el permiso NSC-2025-0099.", ans)
}

func TestAnswerVoided(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	a := New(store, nil)

	ans, err := a.Answer(context.Background(), 1, "lista de permisos anulados")
	require.NoError(t, err)
	assert.Contains(t, ans, "NSC-2025-0002")
	assert.NotContains(t, ans, "NSC-2025-0001")
}

func TestAnswerByDocumentNumber(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	a := New(store, nil)

	// The father appears on both permits.
	ans, err := a.Answer(context.Background(), 1, "qué permisos tiene el documento 03700891")
	require.NoError(t, err)
	assert.Contains(t, ans, "NSC-2025-0001")
	assert.Contains(t, ans, "NSC-2025-0002")

	ans, err = a.Answer(context.Background(), 1, "documento 99990000")
	require.NoError(t, err)
	assert.Contains(t, ans, "No hay permisos asociados")
}

func TestAnswerByName(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	a := New(store, nil)

	ans, err := a.Answer(context.Background(), 1, "permisos de ariana")
	require.NoError(t, err)
	assert.Contains(t, ans, "NSC-2025-0001")
	assert.NotContains(t, ans, "NSC-2025-0002")
}

func TestAnswerUnknownQuestionGetsHint(t *testing.T) {
	a := New(permit.NewMemoryStore(), nil)
	ans, err := a.Answer(context.Background(), 1, "xyzzy")
	require.NoError(t, err)
	assert.Contains(t, ans, "No entendí la consulta")
}

func TestAnswerAppendsToQueryLog(t *testing.T) {
	store := permit.NewMemoryStore()
	svc := permit.NewService(store, nil)
	seedInto(t, svc)
	lg := &recordingLog{}
	a := New(store, lg)

	_, err := a.Answer(context.Background(), 7, "cuántos permisos hay")
	require.NoError(t, err)
	require.Len(t, lg.questions, 1)
	assert.Equal(t, "cuántos permisos hay", lg.questions[0])
	assert.Contains(t, lg.answers[0], "Hay 2")
}

// seedInto creates one active and one voided permit for 2025.
func seedInto(t *testing.T, svc *permit.Service) {
	t.Helper()
	ctx := context.Background()

	content := model.PermitContent{
		Father: model.Guardian{Name: "ERLAND PAUL SÁNCHEZ DÍAZ", DocType: "DNI", DocNumber: "03700891"},
		Mother: model.Guardian{Name: "KATYA MARIELA MERA VILLASÍS", DocType: "DNI", DocNumber: "40443151"},
		Minor:  model.Minor{Name: "ARIANA SÁNCHEZ MERA", DocNumber: "78234154", BirthDate: "2012-09-14", Sex: "F"},
		Travel: model.Travel{
			Kind: model.TravelInternational, Origin: "CHICLAYO", Destination: "SANTIAGO",
			DepartureDate: "2025-12-10",
		},
		Motive: "CONGRESO ESCOLAR",
	}
	_, err := svc.CreatePermit(ctx, 2025, content)
	require.NoError(t, err)

	second := content
	second.Minor = model.Minor{Name: "LUIS TORRES RUIZ", DocNumber: "71112223", BirthDate: "2011-02-02", Sex: "M"}
	p2, err := svc.CreatePermit(ctx, 2025, second)
	require.NoError(t, err)
	require.NoError(t, svc.Void(ctx, p2.ID, "clerical error", "notary@office.pe"))
}
