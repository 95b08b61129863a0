package assets

// AssetResolver routes page template references. Empty references and bare
// names load built-in templates; paths load files from the project directory.
type AssetResolver struct {
	project  *FilesystemLoader
	embedded *EmbeddedLoader
}

// NewAssetResolver creates an AssetResolver for the given project directory.
// Returns ErrInvalidBasePath if projectDir is not a readable directory.
func NewAssetResolver(projectDir string) (*AssetResolver, error) {
	project, err := NewFilesystemLoader(projectDir)
	if err != nil {
		return nil, err
	}
	return &AssetResolver{
		project:  project,
		embedded: NewEmbeddedLoader(),
	}, nil
}

// LoadTemplate loads the template ref points at.
func (r *AssetResolver) LoadTemplate(ref string) (string, error) {
	if IsBuiltinRef(ref) {
		return r.embedded.LoadTemplate(ref)
	}
	return r.project.LoadTemplate(ref)
}

// Compile-time interface check.
var _ TemplateLoader = (*AssetResolver)(nil)
