package storefront

import (
	"strings"
	"sync"

	"velours_back_end/internal/models"
)

// MFAStateTag identifie l'état courant de l'enrôlement
type MFAStateTag int

const (
	MFAIdle MFAStateTag = iota
	MFASetupInitiated
	MFAEnabled
	MFADisabled
)

func (t MFAStateTag) String() string {
	switch t {
	case MFASetupInitiated:
		return "setup_initiated"
	case MFAEnabled:
		return "enabled"
	case MFADisabled:
		return "disabled"
	default:
		return "idle"
	}
}

// mfaState porte le tag et, uniquement quand l'état le justifie, le secret
// et les codes de secours. Le payload vit dans la valeur d'état : il est
// abandonné à la transition suivante et ne peut pas être lu en dehors.
type mfaState struct {
	tag   MFAStateTag
	setup *models.MFASetupResponse
}

// MFAFlow est la machine à états d'enrôlement de la double authentification.
// État éphémère : rien n'est persisté, un redémarrage repart de Idle ou
// Enabled selon le profil.
type MFAFlow struct {
	api MFAAPI

	mu      sync.Mutex
	state   mfaState
	enabled bool
	err     string
}

// NewMFAFlow démarre la machine depuis le profil : Enabled si la MFA est
// déjà active, Idle sinon
func NewMFAFlow(api MFAAPI, mfaEnabled bool) *MFAFlow {
	tag := MFAIdle
	if mfaEnabled {
		tag = MFAEnabled
	}
	return &MFAFlow{api: api, state: mfaState{tag: tag}, enabled: mfaEnabled}
}

func (f *MFAFlow) State() MFAStateTag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.tag
}

// Enabled reflète le drapeau mfa_enabled du profil tel que confirmé par le serveur
func (f *MFAFlow) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *MFAFlow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// SetupPayload expose le secret, le QR et les codes de secours. ok n'est vrai
// que pendant SetupInitiated et la fenêtre qui suit immédiatement la
// vérification (dernière occasion de copier les codes) : toute autre
// transition jette le payload.
func (f *MFAFlow) SetupPayload() (models.MFASetupResponse, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.setup == nil {
		return models.MFASetupResponse{}, false
	}
	return *f.state.setup, true
}

// sanitizeCode garde les chiffres et tronque à six avant tout envoi
func sanitizeCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == 6 {
			break
		}
	}
	return b.String()
}

// InitiateSetup demande un nouveau secret au serveur. En cas d'échec la
// machine reste dans son état courant avec l'erreur du serveur.
func (f *MFAFlow) InitiateSetup() bool {
	f.mu.Lock()
	if f.state.tag == MFAEnabled || f.state.tag == MFASetupInitiated {
		f.err = "Un enrôlement est déjà actif"
		f.mu.Unlock()
		return false
	}
	f.mu.Unlock()

	setup, err := f.api.EnableMFA()
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = errorMessage(err)
		return false
	}
	f.state = mfaState{tag: MFASetupInitiated, setup: setup}
	f.err = ""
	return true
}

// VerifySetup confirme l'enrôlement avec le premier code TOTP. Le payload
// reste visible une dernière fois après le succès.
func (f *MFAFlow) VerifySetup(code string) bool {
	code = sanitizeCode(code)
	if len(code) != 6 {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = "Le code doit comporter 6 chiffres"
		return false
	}

	f.mu.Lock()
	if f.state.tag != MFASetupInitiated {
		f.err = "Aucun enrôlement en cours"
		f.mu.Unlock()
		return false
	}
	setup := f.state.setup
	f.mu.Unlock()

	if err := f.api.VerifyMFA(code); err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = errorMessage(err)
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = mfaState{tag: MFAEnabled, setup: setup}
	f.enabled = true
	f.err = ""
	return true
}

// CancelSetup abandonne l'enrôlement localement, le secret non confirmé est
// jeté. Aucun appel serveur : le secret en attente expire tout seul.
func (f *MFAFlow) CancelSetup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.tag != MFASetupInitiated {
		return
	}
	f.state = mfaState{tag: MFAIdle}
	f.err = ""
}

// Disable coupe la MFA. Le mot de passe est exigé avant tout appel réseau.
func (f *MFAFlow) Disable(password string) bool {
	if password == "" {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = "Mot de passe requis"
		return false
	}

	if err := f.api.DisableMFA(password); err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = errorMessage(err)
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = mfaState{tag: MFADisabled}
	f.enabled = false
	f.err = ""
	return true
}

// ViewBackupCodes liste l'état des codes (jamais le clair), mot de passe exigé
func (f *MFAFlow) ViewBackupCodes(password string) (*BackupCodeStatus, bool) {
	if password == "" {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = "Mot de passe requis"
		return nil, false
	}

	status, err := f.api.GetBackupCodes(password)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = errorMessage(err)
		return nil, false
	}
	f.err = ""
	return status, true
}

// RegenerateBackupCodes invalide tous les anciens codes et renvoie les
// nouveaux, montrés une seule fois
func (f *MFAFlow) RegenerateBackupCodes(password string) ([]string, bool) {
	if password == "" {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.err = "Mot de passe requis"
		return nil, false
	}

	codes, err := f.api.RegenerateBackupCodes(password)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = errorMessage(err)
		return nil, false
	}
	f.err = ""
	return codes, true
}
