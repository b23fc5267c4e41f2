package gen

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

const (
	// DefaultTypeName is used when there's no output file to derive a name from.
	DefaultTypeName = "SData"
	bytesPerLine    = 8
)

// Lang is a target language for generated code.
type Lang string

const (
	LangGo    Lang = "go"
	LangSwift Lang = "swift"
)

// ParseLang returns the Lang with the given name, or LangGo if name is empty.
func ParseLang(name string) (Lang, error) {
	switch lang := Lang(strings.ToLower(strings.TrimSpace(name))); lang {
	case "":
		return LangGo, nil
	case LangGo, LangSwift:
		return lang, nil
	default:
		return "", fmt.Errorf("unsupported language '%s', expected '%s' or '%s'", name, LangGo, LangSwift)
	}
}

var (
	//go:embed go.tmpl
	goTmplText string
	//go:embed swift.tmpl
	swiftTmplText string

	funcs     = template.FuncMap{"join": strings.Join}
	templates = map[Lang]*template.Template{
		LangGo:    template.Must(template.New("go").Funcs(funcs).Parse(goTmplText)),
		LangSwift: template.Must(template.New("swift").Funcs(funcs).Parse(swiftTmplText)),
	}
)

// Secret is the template view of one obfuscated secret.
type Secret struct {
	Name      string
	Label     string
	Ident     string
	SwiftCase string
	TokenHex  string
	TokenDec  string
}

type Params struct {
	Package    string
	TypeName   string
	Exposed    bool
	Lang       Lang
	Secrets    []Secret
	KeyLines   []string
	DataLines  []string
	ListFunc   string
	RevealFunc string
	KeyVar     string
	DataVar    string
	Mask       string
	MaskSwift  string

	output        string
	hash          obfs.Hash
	passphrase    string
	passphraseSet bool
}

// ParamOpt operates on Params in a standard and predictable way, and is used in Render.
// If any ParamOpt returns an error, then generation ceases and the error is returned.
type ParamOpt = func(params *Params) error

// ExposeType indicates that the generated type should be exposed from its package.
func ExposeType(val ...bool) ParamOpt {
	return func(params *Params) error {
		if len(val) > 0 {
			params.Exposed = val[0]
			return nil
		}
		params.Exposed = true
		return nil
	}
}

// PackageName specifies the package name of the generated Go file.
// By default, the name of the output file's directory (or the working directory) is used.
func PackageName(name string) ParamOpt {
	name = strings.TrimSpace(name)
	return func(params *Params) error {
		if len(name) == 0 {
			return nil
		}
		if !token.IsIdentifier(name) || name == "_" {
			return fmt.Errorf("'%s' is not a valid Go package name", name)
		}
		params.Package = name
		return nil
	}
}

// OutputFile specifies the file that will be written, which determines the generated type name.
func OutputFile(path string) ParamOpt {
	return func(params *Params) error {
		params.output = path
		return nil
	}
}

// UseLang sets the target language.
func UseLang(lang Lang) ParamOpt {
	return func(params *Params) error {
		parsed, err := ParseLang(string(lang))
		if err != nil {
			return err
		}
		params.Lang = parsed
		return nil
	}
}

// UsePassphrase sets the passphrase the key is derived from, instead of generating one randomly.
// An empty passphrase is allowed.
func UsePassphrase(passphrase string) ParamOpt {
	return func(params *Params) error {
		params.passphrase = passphrase
		params.passphraseSet = true
		return nil
	}
}

// UseHash sets the key derivation hash.
func UseHash(h obfs.Hash) ParamOpt {
	return func(params *Params) error {
		if !h.Valid() {
			return fmt.Errorf("%w: %s", obfs.ErrUnknownHash, h)
		}
		params.hash = h
		return nil
	}
}

// Result is the outcome of Render.
type Result struct {
	Source  []byte
	Encoded *obfs.Encoded
	Params  *Params
}

// Render encodes secrets and renders the source code that embeds them.
// Various generation options may be passed as zero or more ParamOpt.
func Render(secrets obfs.SecretSet, opts ...ParamOpt) (*Result, error) {
	params := &Params{
		Lang: LangGo,
	}
	for _, opt := range opts {
		if err := opt(params); err != nil {
			return nil, err
		}
	}
	if !params.passphraseSet {
		params.passphrase = obfs.RandomPassphrase()
	}

	enc, err := obfs.Encode(secrets, params.passphrase, obfs.UseHash(params.hash))
	if err != nil {
		return nil, err
	}
	if err := populateNames(params); err != nil {
		return nil, err
	}
	populateData(params, enc)

	var buf bytes.Buffer
	if err := templates[params.Lang].Execute(&buf, params); err != nil {
		return nil, err
	}
	source := buf.Bytes()
	if params.Lang == LangGo {
		source, err = format.Source(source)
		if err != nil {
			return nil, fmt.Errorf("generated Go source is invalid: %w", err)
		}
	}
	return &Result{
		Source:  source,
		Encoded: enc,
		Params:  params,
	}, nil
}

var (
	fileCleansePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	wordSplitPattern   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

func populateNames(params *Params) error {
	typeName := DefaultTypeName
	if len(params.output) > 0 {
		_, fname := filepath.Split(params.output)
		fname = strings.TrimSuffix(fname, filepath.Ext(fname))
		if name := fileCleansePattern.ReplaceAllString(fname, "_"); len(name) > 0 {
			typeName = name
		}
	}
	if unicode.IsDigit(rune(typeName[0])) {
		typeName = "S" + typeName
	}

	switch params.Lang {
	case LangGo:
		if params.Exposed {
			typeName = unicap(typeName)
		} else {
			typeName = uncap(typeName)
		}
		// Only unexported names can be taken, since keywords and predeclared names are lower case.
		if goNameTaken(typeName) {
			typeName = "s" + unicap(typeName)
		}
		if len(params.Package) == 0 {
			pkg, err := defaultPackage(params.output)
			if err != nil {
				return err
			}
			params.Package = pkg
		}
	}
	params.TypeName = typeName
	params.ListFunc = typeName + "Secrets"
	params.RevealFunc = "reveal" + unicap(typeName)
	params.KeyVar = "key" + unicap(typeName)
	params.DataVar = "data" + unicap(typeName)
	params.Mask = fmt.Sprintf("0x%016X", obfs.Mask)
	params.MaskSwift = fmt.Sprintf("0x%016x", obfs.Mask)
	return nil
}

// goSourceNames can't be used for a generated type, in addition to keywords and predeclared names.
var goSourceNames = map[string]bool{
	"_":    true,
	"s":    true,
	"utf8": true,
}

// goNameTaken reports whether a generated type called name would shadow or clash with an identifier the generated source uses.
func goNameTaken(name string) bool {
	return token.IsKeyword(name) || types.Universe.Lookup(name) != nil || goSourceNames[name]
}

// defaultPackage names the package after the directory the output file will be written to.
func defaultPackage(output string) (string, error) {
	dir := filepath.Dir(output)
	if len(output) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	pkg := fileCleansePattern.ReplaceAllString(filepath.Base(abs), "_")
	if len(pkg) == 0 || unicode.IsDigit(rune(pkg[0])) || token.IsKeyword(pkg) || pkg == "_" {
		pkg = "_" + pkg
	}
	return pkg, nil
}

func populateData(params *Params, enc *obfs.Encoded) {
	var (
		title    = cases.Title(language.Und)
		reserved = map[string]bool{
			params.TypeName:   true,
			params.ListFunc:   true,
			params.RevealFunc: true,
			params.KeyVar:     true,
			params.DataVar:    true,
		}
	)
	params.Secrets = make([]Secret, len(enc.Secrets))
	for i, s := range enc.Secrets {
		token := s.Token()
		ident := params.TypeName + camel(s.Name)
		if ident == params.TypeName {
			ident += strconv.Itoa(i + 1)
		}
		for reserved[ident] {
			ident += "_" + strconv.Itoa(i+1)
		}
		reserved[ident] = true

		params.Secrets[i] = Secret{
			Name:      s.Name,
			Label:     label(title.String(s.Name)),
			Ident:     ident,
			SwiftCase: "_" + strconv.Itoa(i+1),
			TokenHex:  token.String(),
			TokenDec:  strconv.FormatUint(uint64(token), 10),
		}
	}
	params.KeyLines = byteLines(enc.Key)
	params.DataLines = byteLines(enc.Blob)
}

// byteLines formats data as hex literals, bytesPerLine to a line.
func byteLines(data []byte) []string {
	var lines []string
	for start := 0; start < len(data); start += bytesPerLine {
		end := min(start+bytesPerLine, len(data))
		lits := make([]string, 0, end-start)
		for _, b := range data[start:end] {
			lits = append(lits, fmt.Sprintf("0x%02X", b))
		}
		lines = append(lines, strings.Join(lits, ", "))
	}
	return lines
}

// camel joins the alphanumeric words of s, capitalizing the first letter of each.
func camel(s string) string {
	var sb strings.Builder
	for _, word := range wordSplitPattern.Split(s, -1) {
		sb.WriteString(unicap(word))
	}
	return sb.String()
}

// label makes s safe to place in a single line comment.
func label(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func unicap(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	return string(append([]rune{unicode.ToUpper(runes[0])}, runes[1:]...))
}

func uncap(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}
	return string(append([]rune{unicode.ToLower(runes[0])}, runes[1:]...))
}
