package ir

// ValidTypes are the type names allowed for method arguments.
// There is no "float".
var ValidTypes = map[string]bool{
	"string": true,
	"int":    true,
	"bool":   true,
	"array":  true,
	"object": true,
	"any":    true,
}

// Builtin method implementations a MethodSpec may name.
const (
	ImplMultiply = "multiply"
	ImplAdd      = "add"
	ImplConcat   = "concat"
	ImplEcho     = "echo"
	ImplConstant = "constant"
	ImplField    = "field"
	ImplFail     = "fail"
)

// ValidImpls is the set of known builtin implementations.
var ValidImpls = map[string]bool{
	ImplMultiply: true,
	ImplAdd:      true,
	ImplConcat:   true,
	ImplEcho:     true,
	ImplConstant: true,
	ImplField:    true,
	ImplFail:     true,
}

// Output cases recorded on a Completion.
const (
	OutputSuccess = "Success"
	OutputError   = "Error"
)

// ClassSpec is a compiled class definition.
type ClassSpec struct {
	Name        string           `json:"name"`
	Purpose     string           `json:"purpose"`
	Extends     string           `json:"extends,omitempty"`
	Constructor *ConstructorSpec `json:"constructor,omitempty"`
	Accessors   []AccessorSpec   `json:"accessors"`
	Methods     []MethodSpec     `json:"methods"`
}

// ConstructorSpec lists the fields set from positional constructor args.
type ConstructorSpec struct {
	Fields []string `json:"fields"`
}

// AccessorSpec is a read-only property backed by an instance field.
type AccessorSpec struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

// MethodSpec binds a method name to a builtin implementation.
// Message, Field and Value parameterize impls that need them.
type MethodSpec struct {
	Name         string     `json:"name"`
	Impl         string     `json:"impl"`
	Args         []NamedArg `json:"args"`
	Message      string     `json:"message,omitempty"`
	Field        string     `json:"field,omitempty"`
	Value        IRValue    `json:"value,omitempty"`
	Writable     bool       `json:"writable"`
	Configurable bool       `json:"configurable"`
}

// NamedArg is a positional argument with a declared type.
type NamedArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Invocation records one call to a composed method.
type Invocation struct {
	ID        string    `json:"id"`
	FlowToken string    `json:"flow_token"`
	MethodRef MethodRef `json:"method_ref"`
	Args      IRArray   `json:"args"`
	Seq       int64     `json:"seq"`
	Strategy  string    `json:"strategy"`
	IRVersion string    `json:"ir_version"`
}

// Completion records the outcome of an Invocation.
type Completion struct {
	ID           string   `json:"id"`
	InvocationID string   `json:"invocation_id"`
	OutputCase   string   `json:"output_case"`
	Result       IRObject `json:"result"`
	Seq          int64    `json:"seq"`
}

// toObject is the hashed form of a ClassSpec.
func (s *ClassSpec) toObject() IRObject {
	accessors := make(IRArray, len(s.Accessors))
	for i, a := range s.Accessors {
		accessors[i] = IRObject{"name": IRString(a.Name), "field": IRString(a.Field)}
	}
	methods := make(IRArray, len(s.Methods))
	for i, m := range s.Methods {
		args := make(IRArray, len(m.Args))
		for j, a := range m.Args {
			args[j] = IRObject{"name": IRString(a.Name), "type": IRString(a.Type)}
		}
		obj := IRObject{
			"name":         IRString(m.Name),
			"impl":         IRString(m.Impl),
			"args":         args,
			"writable":     IRBool(m.Writable),
			"configurable": IRBool(m.Configurable),
		}
		if m.Message != "" {
			obj["message"] = IRString(m.Message)
		}
		if m.Field != "" {
			obj["field"] = IRString(m.Field)
		}
		if m.Value != nil {
			obj["value"] = m.Value
		}
		methods[i] = obj
	}
	obj := IRObject{
		"name":      IRString(s.Name),
		"purpose":   IRString(s.Purpose),
		"accessors": accessors,
		"methods":   methods,
	}
	if s.Extends != "" {
		obj["extends"] = IRString(s.Extends)
	}
	if s.Constructor != nil {
		fields := make(IRArray, len(s.Constructor.Fields))
		for i, f := range s.Constructor.Fields {
			fields[i] = IRString(f)
		}
		obj["constructor"] = fields
	}
	return obj
}
