// Package schema holds the static tables of the build-file dialect:
// which elements may appear where, which attributes they take, and the
// well-known property, item and metadata names. The variant set is
// closed; everything here is data, not behavior.
package schema

import "strings"

// Element describes one known element name.
type Element struct {
	Name        string
	Description string
	Children    []string
	Attributes  []string
}

// elements is keyed by lower-cased name; the dialect is case-sensitive
// for evaluation but editor lookups are forgiving.
var elements = map[string]*Element{}

func register(e *Element) {
	elements[strings.ToLower(e.Name)] = e
}

func init() {
	register(&Element{
		Name:        "Project",
		Description: "Root element of a build file.",
		Children:    []string{"PropertyGroup", "ItemGroup", "Target", "Import", "ImportGroup", "UsingTask", "Choose", "ItemDefinitionGroup"},
		Attributes:  []string{"Sdk", "DefaultTargets", "InitialTargets", "ToolsVersion", "TreatAsLocalProperty", "xmlns"},
	})
	register(&Element{
		Name:        "PropertyGroup",
		Description: "Groups property definitions; child element names define properties.",
		Attributes:  []string{"Condition", "Label"},
	})
	register(&Element{
		Name:        "ItemGroup",
		Description: "Groups item definitions; child element names define item types.",
		Attributes:  []string{"Condition", "Label"},
	})
	register(&Element{
		Name:        "ItemDefinitionGroup",
		Description: "Supplies default metadata for item types.",
		Attributes:  []string{"Condition"},
	})
	register(&Element{
		Name:        "Target",
		Description: "A named, ordered set of tasks.",
		Children:    []string{"PropertyGroup", "ItemGroup", "OnError"},
		Attributes: []string{
			"Name", "Condition", "DependsOnTargets", "BeforeTargets", "AfterTargets",
			"Inputs", "Outputs", "Returns", "KeepDuplicateOutputs", "Label",
		},
	})
	register(&Element{
		Name:        "Import",
		Description: "Imports another build file.",
		Attributes:  []string{"Project", "Condition", "Sdk", "Label"},
	})
	register(&Element{
		Name:        "ImportGroup",
		Description: "Groups Import elements under one condition.",
		Children:    []string{"Import"},
		Attributes:  []string{"Condition", "Label"},
	})
	register(&Element{
		Name:        "UsingTask",
		Description: "Maps a task name onto the assembly that implements it.",
		Children:    []string{"ParameterGroup", "Task"},
		Attributes:  []string{"TaskName", "AssemblyFile", "AssemblyName", "TaskFactory", "Condition"},
	})
	register(&Element{
		Name:        "Choose",
		Description: "First-match conditional construct.",
		Children:    []string{"When", "Otherwise"},
	})
	register(&Element{
		Name:        "When",
		Description: "One branch of a Choose.",
		Children:    []string{"PropertyGroup", "ItemGroup", "Choose"},
		Attributes:  []string{"Condition"},
	})
	register(&Element{
		Name:        "Otherwise",
		Description: "Fallback branch of a Choose.",
		Children:    []string{"PropertyGroup", "ItemGroup", "Choose"},
	})
	register(&Element{
		Name:        "OnError",
		Description: "Targets to run when this target fails.",
		Attributes:  []string{"ExecuteTargets", "Condition"},
	})
	register(&Element{
		Name:        "ParameterGroup",
		Description: "Declares parameters for an inline task.",
	})
	register(&Element{
		Name:        "Task",
		Description: "Body of an inline task.",
		Attributes:  []string{"Evaluate"},
	})
}

// LookupElement returns the schema entry for an element name.
func LookupElement(name string) (*Element, bool) {
	e, ok := elements[strings.ToLower(name)]
	return e, ok
}

// ChildrenOf returns the known child element names for a parent, or the
// root set when parent is empty. An unknown parent returns nil: item and
// property names are user-defined, so no claim is made.
func ChildrenOf(parent string) []string {
	if parent == "" {
		return []string{"Project"}
	}
	if e, ok := LookupElement(parent); ok {
		return e.Children
	}
	return nil
}

// AttributesOf returns the known attribute names for an element. Unknown
// elements (items, tasks) still accept the common Condition attribute.
func AttributesOf(name string) []string {
	if e, ok := LookupElement(name); ok {
		return e.Attributes
	}
	return []string{"Condition", "Include", "Exclude", "Remove", "Update", "KeepMetadata", "RemoveMetadata"}
}

// Property is a well-known property name with its description.
type Property struct {
	Name        string
	Description string
}

// WellKnownProperties are the reserved and common properties every
// project sees without defining them.
var WellKnownProperties = []Property{
	{"MSBuildProjectDirectory", "Absolute directory of the project file."},
	{"MSBuildProjectFile", "File name and extension of the project file."},
	{"MSBuildProjectName", "File name of the project file without extension."},
	{"MSBuildProjectFullPath", "Absolute path of the project file."},
	{"MSBuildProjectExtension", "Extension of the project file."},
	{"MSBuildThisFile", "File name of the file being evaluated."},
	{"MSBuildThisFileDirectory", "Directory of the file being evaluated."},
	{"Configuration", "Active build configuration, e.g. Debug or Release."},
	{"Platform", "Active target platform."},
	{"OutputPath", "Relative output directory."},
	{"OutDir", "Final output directory."},
	{"IntermediateOutputPath", "Relative intermediate output directory."},
	{"BaseOutputPath", "Base of the output directory tree."},
	{"TargetFramework", "Framework the project compiles against."},
	{"RootNamespace", "Default namespace for new files."},
	{"AssemblyName", "Name of the produced assembly."},
}

// Metadatum is a well-known item metadata name.
type Metadatum struct {
	Name        string
	Description string
}

// WellKnownMetadata is available on every item.
var WellKnownMetadata = []Metadatum{
	{"FullPath", "Absolute path of the item."},
	{"RootDir", "Root directory of the item's path."},
	{"Filename", "File name without extension."},
	{"Extension", "File extension, including the dot."},
	{"RelativeDir", "Directory as specified in Include."},
	{"Directory", "Directory without the root."},
	{"Identity", "The value as specified in Include."},
	{"ModifiedTime", "Last modification timestamp."},
	{"CreatedTime", "Creation timestamp."},
	{"AccessedTime", "Last access timestamp."},
}

// LookupProperty returns the well-known property entry for name.
func LookupProperty(name string) (Property, bool) {
	for _, p := range WellKnownProperties {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Property{}, false
}

// LookupMetadata returns the well-known metadata entry for name.
func LookupMetadata(name string) (Metadatum, bool) {
	for _, m := range WellKnownMetadata {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Metadatum{}, false
}

// ConditionFunctions are the function forms accepted inside conditions.
var ConditionFunctions = []string{"Exists", "HasTrailingSlash"}
