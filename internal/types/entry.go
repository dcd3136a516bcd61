package types

// Category names a mutable collection of the profile. It doubles as the
// streak key in ProgressState.
type Category string

// Profile collections.
const (
	CategorySkills         Category = "skills"
	CategoryExperiences    Category = "experiences"
	CategoryEducation      Category = "education"
	CategoryCertifications Category = "certifications"
)

// Categories lists every collection in wizard order.
var Categories = []Category{CategorySkills, CategoryExperiences, CategoryEducation, CategoryCertifications}

// Entry is implemented by every collection entry type. T is the entry type
// itself so WithIDs can return a typed copy.
type Entry[T any] interface {
	ID() string
	ServerID() string
	NaturalKey() string
	Label() string
	WithIDs(localID, remoteID string) T
}
