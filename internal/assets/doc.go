// Package assets provides the HTML page templates pages are rendered from.
//
// # Loader Architecture
//
//	TemplateLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in templates compiled into the binary
//	    ├── FilesystemLoader  - template files inside the project directory
//	    └── AssetResolver     - routes a page's template reference to one of them
//
// A reference is either empty (the default built-in template), a bare name
// such as "blank" (a built-in template), or a slash-separated path relative
// to the project directory such as "public/index.html".
//
// # Security
//
// Template paths may not be absolute or climb out of the project directory.
// FilesystemLoader resolves symlinks and verifies paths stay within its base.
package assets
