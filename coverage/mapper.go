package coverage

// Mapper populates a Filter from the file configuration's coverage
// declarations.
type Mapper struct{}

// NewMapper creates a mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map adds the declared directories and files to the filter.
func (m *Mapper) Map(filter *Filter, directories []string, files []string) {
	for _, dir := range directories {
		filter.IncludeDirectory(dir)
	}
	for _, file := range files {
		filter.IncludeFile(file)
	}
}
