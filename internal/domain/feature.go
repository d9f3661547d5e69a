package domain

// Feature identifica uma funcionalidade da extensão que pode ser bloqueada por plano.
type Feature string

const (
	FeatureNotes              Feature = "notes"
	FeatureShortcuts          Feature = "shortcuts"
	FeatureUnlimitedNotes     Feature = "unlimited_notes"
	FeatureBackup             Feature = "backup"
	FeatureCustomThemes       Feature = "custom_themes"
	FeatureMultipleWorkspaces Feature = "multiple_workspaces"
)

// RequiresPro informa se a funcionalidade só é liberada para licenças Pro.
// Funcionalidades desconhecidas são tratadas como Pro.
func (f Feature) RequiresPro() bool {
	switch f {
	case FeatureNotes, FeatureShortcuts:
		return false
	}
	return true
}
