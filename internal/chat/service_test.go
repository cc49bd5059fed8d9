package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/dbtest"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	asked   []string
}

func (f *fakeAnswerer) GenerateAnswer(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, text)
	if err, ok := f.errs[text]; ok {
		return "", err
	}
	if a, ok := f.answers[text]; ok {
		return a, nil
	}
	return "answer: " + text, nil
}

func (f *fakeAnswerer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.asked)
}

type harness struct {
	svc      Service
	client   *db.Client
	answerer *fakeAnswerer
	registry *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t, 5)
	answerer := &fakeAnswerer{answers: map[string]string{}, errs: map[string]error{}}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Storage:          client,
		Answerer:         answerer,
		Logger:           logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Metrics:          metrics.NewChatMetrics(reg),
		MaxMessageLength: 200,
		Now:              func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return &harness{svc: svc, client: client, answerer: answerer, registry: reg}
}

func (h *harness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.client.DB().Model(model).Count(&n).Error)
	return n
}

func TestHandleSplitsClassifiesAndPersistsUnderOneSession(t *testing.T) {
	h := newHarness(t)
	h.answerer.answers["What is GST?"] = "Goods and Services Tax."
	h.answerer.answers["How do I file ITR?"] = "Use the e-filing portal."

	resp, err := h.svc.Handle(context.Background(), Request{
		Message: "What is GST? How do I file ITR?",
		Email:   "a@b.com",
		Name:    "A",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, resp.Status)
	require.Len(t, resp.QAPairs, 2)
	assert.Equal(t, "What is GST?", resp.QAPairs[0].Question)
	assert.Equal(t, enums.TaxCategoryGST, resp.QAPairs[0].Category)
	assert.Equal(t, "How do I file ITR?", resp.QAPairs[1].Question)
	assert.Equal(t, enums.TaxCategoryIncomeTax, resp.QAPairs[1].Category)
	assert.Equal(t,
		"Category: GST\nQ: What is GST?\nA: Goods and Services Tax.\n\n"+
			"Category: INCOME_TAX\nQ: How do I file ITR?\nA: Use the e-filing portal.",
		resp.Response)

	var pairs []models.QAPair
	require.NoError(t, h.client.DB().Order("id ASC").Find(&pairs).Error)
	require.Len(t, pairs, 2)
	for i, p := range pairs {
		assert.Equal(t, resp.SessionID, p.SessionID)
		assert.Equal(t, resp.QAPairs[i].ID, p.ID)
		assert.Equal(t, resp.QAPairs[i].Category, p.Category)
	}

	var session models.ChatSession
	require.NoError(t, h.client.DB().First(&session, resp.SessionID).Error)
	assert.True(t, session.IsOpen())
	assert.Equal(t, "Tax Consultation", session.Topic)

	assert.Equal(t, float64(1), counterValue(t, h.registry, "chat_requests_total", "success"))
}

func TestHandleReusesUserAndOpenSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Handle(ctx, Request{Message: "What is TDS?", Email: "a@b.com", Name: "A"})
	require.NoError(t, err)
	second, err := h.svc.Handle(ctx, Request{Message: "Any deduction for rent?", Email: "a@b.com", Name: "Someone Else"})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.EqualValues(t, 1, h.count(t, &models.User{}))
	assert.EqualValues(t, 1, h.count(t, &models.ChatSession{}))
	assert.EqualValues(t, 2, h.count(t, &models.QAPair{}))

	var user models.User
	require.NoError(t, h.client.DB().Where("email = ?", "a@b.com").First(&user).Error)
	assert.Equal(t, "A", user.Name, "existing profile is not overwritten")
}

func TestHandleUpstreamFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.answerer.errs["How do I file ITR?"] = pkgerrors.New(pkgerrors.CodeUpstream, "provider returned 502")

	_, err := h.svc.Handle(context.Background(), Request{
		Message: "What is GST? How do I file ITR?",
		Email:   "a@b.com",
		Name:    "A",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUpstream, pkgerrors.CodeOf(err))

	assert.Zero(t, h.count(t, &models.User{}))
	assert.Zero(t, h.count(t, &models.ChatSession{}))
	assert.Zero(t, h.count(t, &models.QAPair{}))
	assert.Equal(t, float64(1), counterValue(t, h.registry, "chat_requests_total", "upstream_error"))
}

func TestHandleTimeoutSurfacesGatewayTimeout(t *testing.T) {
	h := newHarness(t)
	h.answerer.errs["What is GST?"] = pkgerrors.New(pkgerrors.CodeTimeout, "llm call timed out")

	_, err := h.svc.Handle(context.Background(), Request{Message: "What is GST?", Email: "a@b.com"})
	assert.Equal(t, pkgerrors.CodeTimeout, pkgerrors.CodeOf(err))
	assert.Zero(t, h.count(t, &models.QAPair{}))
}

func TestHandleValidatesBeforeAnyWork(t *testing.T) {
	h := newHarness(t)

	cases := map[string]Request{
		"empty message":    {Message: "", Email: "a@b.com"},
		"blank message":    {Message: "   \n ", Email: "a@b.com"},
		"only separators":  {Message: "? ?", Email: "a@b.com"},
		"missing email":    {Message: "What is GST?"},
		"malformed email":  {Message: "What is GST?", Email: "not-an-email"},
		"message too long": {Message: strings.Repeat("a", 201), Email: "a@b.com"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.Handle(context.Background(), req)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	assert.Zero(t, h.answerer.calls())
	assert.Zero(t, h.count(t, &models.User{}))
}

func TestHandleDeclarativeSentenceBecomesQuestion(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Handle(context.Background(), Request{Message: "Tell me about balance sheets", Email: "b@c.com"})
	require.NoError(t, err)
	require.Len(t, resp.QAPairs, 1)
	assert.Equal(t, "Tell me about balance sheets?", resp.QAPairs[0].Question)
	assert.Equal(t, enums.TaxCategoryAccounting, resp.QAPairs[0].Category)

	var user models.User
	require.NoError(t, h.client.DB().Where("email = ?", "b@c.com").First(&user).Error)
	assert.Equal(t, "b", user.Name, "name falls back to the email local part")
	assert.Empty(t, user.PasswordHash)
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "", Combine(nil))
	assert.Equal(t, "Category: GENERAL\nQ: Hi?\nA: Hello", Combine([]Exchange{{Question: "Hi?", Answer: "Hello", Category: enums.TaxCategoryGeneral}}))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
