package domain

import "strings"

// PseudoTag is one of the hardcoded variable.user tags. They behave like
// regular tags in the catalog but are never persisted in tag.json; answering
// a question carrying one writes straight into the matching User field.
type PseudoTag struct {
	ID    string
	Name  string
	Field string
}

const pseudoTagPrefix = "variable.user."

// PseudoTags lists every variable.user tag in a stable order.
var PseudoTags = []PseudoTag{
	{ID: "vu_dateNaissance", Name: "variable.user.dateNaissance", Field: "dateNaissance"},
	{ID: "vu_telephone", Name: "variable.user.telephone", Field: "telephone"},
	{ID: "vu_photoProfil", Name: "variable.user.photoProfil", Field: "photoProfil"},
	{ID: "vu_numeroCitoyen", Name: "variable.user.numeroCitoyen", Field: "numeroCitoyen"},
	{ID: "vu_sexe", Name: "variable.user.sexe", Field: "sexe"},
	{ID: "vu_couleurPeau", Name: "variable.user.couleurPeau", Field: "couleurPeau"},
	{ID: "vu_couleurCheveux", Name: "variable.user.couleurCheveux", Field: "couleurCheveux"},
	{ID: "vu_longueurCheveux", Name: "variable.user.longueurCheveux", Field: "longueurCheveux"},
	{ID: "vu_styleVestimentaire", Name: "variable.user.styleVestimentaire", Field: "styleVestimentaire"},
	{ID: "vu_metier", Name: "variable.user.metier", Field: "metier"},
}

var (
	pseudoTagsByID        = map[string]PseudoTag{}
	pseudoTagsByNameLower = map[string]PseudoTag{}
	pseudoTagFields       = map[string]bool{}
)

func init() {
	for _, t := range PseudoTags {
		pseudoTagsByID[t.ID] = t
		pseudoTagsByNameLower[strings.ToLower(t.Name)] = t
		pseudoTagFields[t.Field] = true
	}
}

// PseudoTagByID returns the pseudo-tag with the given reserved id.
func PseudoTagByID(id string) (PseudoTag, bool) {
	t, ok := pseudoTagsByID[id]
	return t, ok
}

// IsPseudoTagID reports whether id is one of the reserved pseudo-tag ids.
func IsPseudoTagID(id string) bool {
	_, ok := pseudoTagsByID[id]
	return ok
}

// IsPseudoTagName reports whether name collides with a pseudo-tag, either
// exactly or through the reserved variable.user. prefix.
func IsPseudoTagName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if _, ok := pseudoTagsByNameLower[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, pseudoTagPrefix)
}

// UserFieldForTagName resolves a tag name to the User profile field it
// targets, accepting both exact names and variable.user.<field> spellings.
func UserFieldForTagName(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", false
	}
	if t, ok := pseudoTagsByNameLower[strings.ToLower(s)]; ok {
		return t.Field, true
	}
	if !strings.HasPrefix(strings.ToLower(s), pseudoTagPrefix) {
		return "", false
	}
	field := strings.TrimSpace(s[len(pseudoTagPrefix):])
	if pseudoTagFields[field] {
		return field, true
	}
	return "", false
}

// ProfileField reads the profile field a pseudo-tag writes into.
func (u *User) ProfileField(field string) string {
	switch field {
	case "dateNaissance":
		return u.DateNaissance
	case "telephone":
		return u.Telephone
	case "photoProfil":
		return u.PhotoProfil
	case "numeroCitoyen":
		return u.NumeroCitoyen
	case "sexe":
		return u.Sexe
	case "couleurPeau":
		return u.CouleurPeau
	case "couleurCheveux":
		return u.CouleurCheveux
	case "longueurCheveux":
		return u.LongueurCheveux
	case "styleVestimentaire":
		return u.StyleVestimentaire
	case "metier":
		return u.Metier
	}
	return ""
}

// SetProfileField writes the profile field a pseudo-tag targets. Returns
// false for unknown fields.
func (u *User) SetProfileField(field, value string) bool {
	switch field {
	case "dateNaissance":
		u.DateNaissance = value
	case "telephone":
		u.Telephone = value
	case "photoProfil":
		u.PhotoProfil = value
	case "numeroCitoyen":
		u.NumeroCitoyen = value
	case "sexe":
		u.Sexe = value
	case "couleurPeau":
		u.CouleurPeau = value
	case "couleurCheveux":
		u.CouleurCheveux = value
	case "longueurCheveux":
		u.LongueurCheveux = value
	case "styleVestimentaire":
		u.StyleVestimentaire = value
	case "metier":
		u.Metier = value
	default:
		return false
	}
	return true
}
