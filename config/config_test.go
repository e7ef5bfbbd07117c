package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
auth:
  secret: test-secret
generator:
  webhook_url: http://localhost:9999/hook
`

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, AssemblyInterpolate, cfg.Report.Assembly)
	assert.Equal(t, 120*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, "moneroo", cfg.Payment.DefaultProvider)
	assert.Equal(t, 1, cfg.Plan(PlanFree).Analyses)
	assert.Equal(t, 30, cfg.Plan(PlanPro).Analyses)
	assert.Equal(t, 104, cfg.Plan(PlanElite).Analyses)
}

func TestLoad_PrefersLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", minimalYAML)
	writeConfig(t, dir, "config.local.yaml", minimalYAML+"report:\n  assembly: editorial\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AssemblyEditorial, cfg.Report.Assembly)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Auth:      AuthConfig{Secret: "s"},
			Generator: GeneratorConfig{WebhookURL: "http://x"},
			Plans:     DefaultPlans(),
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Generator.WebhookURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Report.Assembly = "fancy"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth = AuthConfig{}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth = AuthConfig{JWKSURL: "https://id.example.com/.well-known/jwks.json"}
	assert.NoError(t, cfg.Validate())
}

func TestPlanByPriceID(t *testing.T) {
	cfg := &Config{Plans: map[string]PlanConfig{
		PlanFree:  {Analyses: 1},
		PlanPro:   {Analyses: 30, LygosPriceID: "lygos_pro", StripePriceID: "price_pro"},
		PlanElite: {Analyses: 104, LygosPriceID: "lygos_elite"},
	}}

	plan, ok := cfg.PlanByPriceID("lygos_pro")
	assert.True(t, ok)
	assert.Equal(t, PlanPro, plan)

	plan, ok = cfg.PlanByPriceID("price_pro")
	assert.True(t, ok)
	assert.Equal(t, PlanPro, plan)

	plan, ok = cfg.PlanByPriceID("lygos_elite")
	assert.True(t, ok)
	assert.Equal(t, PlanElite, plan)

	_, ok = cfg.PlanByPriceID("unknown")
	assert.False(t, ok)
	_, ok = cfg.PlanByPriceID("")
	assert.False(t, ok)
}

func TestPlan_UnknownFallsBackToFree(t *testing.T) {
	cfg := &Config{Plans: DefaultPlans()}
	assert.Equal(t, 1, cfg.Plan("platinum").Analyses)
}
