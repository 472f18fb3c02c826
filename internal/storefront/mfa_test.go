package storefront

import (
	"testing"

	"velours_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMFAAPI struct {
	enableFn     func() (*models.MFASetupResponse, error)
	verifyFn     func(code string) error
	disableFn    func(password string) error
	codesFn      func(password string) (*BackupCodeStatus, error)
	regenFn      func(password string) ([]string, error)
	disableCalls int
}

func (f *fakeMFAAPI) EnableMFA() (*models.MFASetupResponse, error) { return f.enableFn() }
func (f *fakeMFAAPI) VerifyMFA(code string) error                  { return f.verifyFn(code) }
func (f *fakeMFAAPI) CancelMFA() error                             { return nil }

func (f *fakeMFAAPI) DisableMFA(password string) error {
	f.disableCalls++
	return f.disableFn(password)
}

func (f *fakeMFAAPI) GetBackupCodes(password string) (*BackupCodeStatus, error) {
	return f.codesFn(password)
}

func (f *fakeMFAAPI) RegenerateBackupCodes(password string) ([]string, error) {
	return f.regenFn(password)
}

func testSetup() *models.MFASetupResponse {
	return &models.MFASetupResponse{
		Secret: "JBSWY3DPEHPK3PXP",
		QRCode: "data:image/png;base64,AAAA",
		BackupCodes: []string{
			"AAAA-AAAA", "BBBB-BBBB", "CCCC-CCCC", "DDDD-DDDD", "EEEE-EEEE",
			"FFFF-FFFF", "GGGG-GGGG", "HHHH-HHHH", "JJJJ-JJJJ", "KKKK-KKKK",
		},
	}
}

func TestMFAEnrollmentWalkthrough(t *testing.T) {
	api := &fakeMFAAPI{
		enableFn: func() (*models.MFASetupResponse, error) { return testSetup(), nil },
		verifyFn: func(code string) error {
			if code == "123456" {
				return nil
			}
			return &APIError{Status: 401, Message: "Code invalide"}
		},
	}
	flow := NewMFAFlow(api, false)
	require.Equal(t, MFAIdle, flow.State())

	require.True(t, flow.InitiateSetup())
	require.Equal(t, MFASetupInitiated, flow.State())

	payload, ok := flow.SetupPayload()
	require.True(t, ok)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", payload.Secret)
	assert.Contains(t, payload.QRCode, "data:image/png")
	assert.Len(t, payload.BackupCodes, 10)

	// un mauvais code ne fait pas avancer la machine
	assert.False(t, flow.VerifySetup("000000"))
	assert.Equal(t, MFASetupInitiated, flow.State())
	assert.Equal(t, "Code invalide", flow.Err())

	require.True(t, flow.VerifySetup("123456"))
	assert.Equal(t, MFAEnabled, flow.State())
	assert.True(t, flow.Enabled())
	assert.Empty(t, flow.Err())

	// dernière fenêtre de copie des codes après la vérification
	payload, ok = flow.SetupPayload()
	require.True(t, ok)
	assert.Len(t, payload.BackupCodes, 10)
}

func TestMFAVerifySanitizesCode(t *testing.T) {
	var sent string
	api := &fakeMFAAPI{
		enableFn: func() (*models.MFASetupResponse, error) { return testSetup(), nil },
		verifyFn: func(code string) error {
			sent = code
			return nil
		},
	}
	flow := NewMFAFlow(api, false)
	require.True(t, flow.InitiateSetup())

	require.True(t, flow.VerifySetup(" 12 34-56 789 "))
	assert.Equal(t, "123456", sent, "chiffres seulement, tronqué à six")

	flow2 := NewMFAFlow(api, false)
	require.True(t, flow2.InitiateSetup())
	assert.False(t, flow2.VerifySetup("12ab"), "moins de six chiffres = refus local")
	assert.Equal(t, MFASetupInitiated, flow2.State())
}

func TestMFAInitiateFailureStaysIdle(t *testing.T) {
	api := &fakeMFAAPI{
		enableFn: func() (*models.MFASetupResponse, error) {
			return nil, &APIError{Status: 500, Message: "Erreur génération secret"}
		},
	}
	flow := NewMFAFlow(api, false)

	assert.False(t, flow.InitiateSetup())
	assert.Equal(t, MFAIdle, flow.State())
	assert.Equal(t, "Erreur génération secret", flow.Err())
	_, ok := flow.SetupPayload()
	assert.False(t, ok)
}

func TestMFACancelDropsSecretLocally(t *testing.T) {
	api := &fakeMFAAPI{
		enableFn: func() (*models.MFASetupResponse, error) { return testSetup(), nil },
	}
	flow := NewMFAFlow(api, false)
	require.True(t, flow.InitiateSetup())

	flow.CancelSetup()
	assert.Equal(t, MFAIdle, flow.State())
	_, ok := flow.SetupPayload()
	assert.False(t, ok, "le secret non confirmé est jeté")
	assert.False(t, flow.Enabled())
}

func TestMFADisableRequiresPassword(t *testing.T) {
	api := &fakeMFAAPI{
		disableFn: func(string) error { return nil },
	}
	flow := NewMFAFlow(api, true)

	assert.False(t, flow.Disable(""), "mot de passe vide refusé avant tout appel réseau")
	assert.Zero(t, api.disableCalls)
	assert.Equal(t, MFAEnabled, flow.State())
	assert.Equal(t, "Mot de passe requis", flow.Err())

	require.True(t, flow.Disable("correct-pw"))
	assert.Equal(t, 1, api.disableCalls)
	assert.Equal(t, MFADisabled, flow.State())
	assert.False(t, flow.Enabled())
	_, ok := flow.SetupPayload()
	assert.False(t, ok, "plus aucun code affiché après désactivation")
}

func TestMFADisableWrongPasswordKeepsState(t *testing.T) {
	api := &fakeMFAAPI{
		disableFn: func(string) error {
			return &APIError{Status: 401, Message: "Mot de passe incorrect"}
		},
	}
	flow := NewMFAFlow(api, true)

	assert.False(t, flow.Disable("wrong"))
	assert.Equal(t, MFAEnabled, flow.State())
	assert.True(t, flow.Enabled())
	assert.Equal(t, "Mot de passe incorrect", flow.Err())
}

func TestMFARegenerateBackupCodes(t *testing.T) {
	api := &fakeMFAAPI{
		regenFn: func(password string) ([]string, error) {
			return []string{"NNNN-NNNN", "PPPP-PPPP"}, nil
		},
		codesFn: func(password string) (*BackupCodeStatus, error) {
			return &BackupCodeStatus{
				Codes:     []models.BackupCode{{Used: true}, {Used: false}},
				Remaining: 1,
			}, nil
		},
	}
	flow := NewMFAFlow(api, true)

	_, ok := flow.RegenerateBackupCodes("")
	assert.False(t, ok)

	codes, ok := flow.RegenerateBackupCodes("correct-pw")
	require.True(t, ok)
	assert.Len(t, codes, 2)

	status, ok := flow.ViewBackupCodes("correct-pw")
	require.True(t, ok)
	assert.Equal(t, 1, status.Remaining)
	assert.Len(t, status.Codes, 2)
}
