package seed

// Entry is a single book in a seed file.
// Pages and release are kept as raw text; YAML integers decode into them as-is.
type Entry struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Pages   string `yaml:"pages"`
	Read    bool   `yaml:"read"`
	Genre   string `yaml:"genre"`
	Release string `yaml:"release"`
	Cover   string `yaml:"cover"`
}

// File is the root structure of a seed file.
type File struct {
	Books []Entry `yaml:"books"`
}
