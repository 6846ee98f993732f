package syntax_test

import (
	"errors"
	"strings"
	"testing"

	"anvil/internal/position"
	"anvil/internal/syntax"
)

// at converts an absolute offset to the position Inspect expects.
func at(t *testing.T, tree *syntax.Tree, off int) position.Position {
	t.Helper()
	p, err := tree.Index().ToPosition(off)
	if err != nil {
		t.Fatalf("ToPosition(%d) failed: %v", off, err)
	}
	return p
}

func findElement(t *testing.T, tree *syntax.Tree, name string) int {
	t.Helper()
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if n.Kind == syntax.KindElement && n.Name == name {
			return i
		}
	}
	t.Fatalf("element <%s> not found", name)
	return syntax.None
}

func TestParseStructure(t *testing.T) {
	text := `<Project><PropertyGroup><OutDir>bin\</OutDir></PropertyGroup></Project>`
	tree := syntax.Parse(text, nil)

	if len(tree.Problems()) != 0 {
		t.Fatalf("unexpected problems: %+v", tree.Problems())
	}

	project := findElement(t, tree, "Project")
	group := findElement(t, tree, "PropertyGroup")
	outDir := findElement(t, tree, "OutDir")

	if tree.Node(project).Parent != syntax.None {
		t.Error("Project should be a root node")
	}
	if tree.Node(group).Parent != project {
		t.Error("PropertyGroup should be a child of Project")
	}
	if tree.Node(outDir).Parent != group {
		t.Error("OutDir should be a child of PropertyGroup")
	}

	n := tree.Node(outDir)
	if !n.IsValid {
		t.Error("OutDir should be valid")
	}
	if got := text[n.Start:n.End]; got != `<OutDir>bin\</OutDir>` {
		t.Errorf("OutDir spans %q", got)
	}
	kids := tree.Children(outDir)
	if len(kids) != 1 || tree.Node(kids[0]).Kind != syntax.KindText {
		t.Fatalf("OutDir should contain one text node, got %v", kids)
	}
}

func TestSiblingOrder(t *testing.T) {
	text := `<Root><A/> <B/>text<C/></Root>`
	tree := syntax.Parse(text, nil)

	root := findElement(t, tree, "Root")
	kids := tree.Children(root)
	wantKinds := []syntax.Kind{
		syntax.KindElement,    // A
		syntax.KindWhitespace, // gap
		syntax.KindElement,    // B
		syntax.KindText,       // text
		syntax.KindElement,    // C
	}
	if len(kids) != len(wantKinds) {
		t.Fatalf("got %d children, want %d", len(kids), len(wantKinds))
	}
	prevEnd := -1
	for i, k := range kids {
		n := tree.Node(k)
		if n.Kind != wantKinds[i] {
			t.Errorf("child %d: kind %s, want %s", i, n.Kind, wantKinds[i])
		}
		if n.Start < prevEnd {
			t.Errorf("child %d: overlapping sibling range", i)
		}
		prevEnd = n.End
		if i > 0 && n.Prev != kids[i-1] {
			t.Errorf("child %d: broken Prev link", i)
		}
		if i < len(kids)-1 && n.Next != kids[i+1] {
			t.Errorf("child %d: broken Next link", i)
		}
	}
}

func TestAttributes(t *testing.T) {
	text := `<Import Project="common.props" Condition="'$(OS)'=='Unix'"/>`
	tree := syntax.Parse(text, nil)

	imp := findElement(t, tree, "Import")
	if !tree.Node(imp).SelfClosing {
		t.Error("Import should be self-closing")
	}

	proj := tree.Attribute(imp, "Project")
	if proj == syntax.None {
		t.Fatal("Project attribute not found")
	}
	if got := tree.Node(proj).Value(text); got != "common.props" {
		t.Errorf("Project value = %q", got)
	}

	cond := tree.Attribute(imp, "Condition")
	if cond == syntax.None {
		t.Fatal("Condition attribute not found")
	}
	if got := tree.Node(cond).Value(text); got != "'$(OS)'=='Unix'" {
		t.Errorf("Condition value = %q", got)
	}
	if tree.Attribute(imp, "Sdk") != syntax.None {
		t.Error("lookup of a missing attribute should return None")
	}
}

func TestMalformedInput(t *testing.T) {
	t.Run("UnclosedElement", func(t *testing.T) {
		tree := syntax.Parse(`<Project><ItemGroup></Project>`, nil)
		group := findElement(t, tree, "ItemGroup")
		if tree.Node(group).IsValid {
			t.Error("unclosed ItemGroup should be invalid")
		}
		project := findElement(t, tree, "Project")
		if !tree.Node(project).IsValid {
			t.Error("Project should still be valid")
		}
		if len(tree.Problems()) == 0 {
			t.Error("expected a problem for the unclosed element")
		}
	})

	t.Run("UnterminatedComment", func(t *testing.T) {
		tree := syntax.Parse(`<Project/><!-- dangling`, nil)
		var comment *syntax.Node
		for i := 0; i < tree.Len(); i++ {
			if tree.Node(i).Kind == syntax.KindComment {
				comment = tree.Node(i)
			}
		}
		if comment == nil {
			t.Fatal("comment node not found")
		}
		if comment.IsValid {
			t.Error("unterminated comment should be invalid")
		}
	})

	t.Run("StrayClosingTag", func(t *testing.T) {
		tree := syntax.Parse(`</Orphan><Project/>`, nil)
		orphan := findElement(t, tree, "Orphan")
		if tree.Node(orphan).IsValid {
			t.Error("stray closing tag should be invalid")
		}
		if len(tree.Problems()) == 0 {
			t.Error("expected a problem for the stray closing tag")
		}
	})

	t.Run("UnquotedAttribute", func(t *testing.T) {
		tree := syntax.Parse(`<Import Project=common.props />`, nil)
		imp := findElement(t, tree, "Import")
		attr := tree.Attribute(imp, "Project")
		if attr == syntax.None {
			t.Fatal("malformed attribute should still produce a node")
		}
		if tree.Node(attr).IsValid {
			t.Error("unquoted attribute should be invalid")
		}
	})

	t.Run("EveryByteCovered", func(t *testing.T) {
		// Even for malformed input every top-level byte belongs to a node.
		inputs := []string{
			`<Project><Broken</Project>`,
			`text only`,
			`<a b=">`,
			`<?xml version="1.0"?><Project/>`,
		}
		for _, text := range inputs {
			tree := syntax.Parse(text, nil)
			end := 0
			for _, r := range tree.Roots() {
				n := tree.Node(r)
				if n.Start != end {
					t.Errorf("%q: gap before offset %d", text, n.Start)
				}
				end = n.End
			}
			if end != len(text) {
				t.Errorf("%q: coverage ends at %d, want %d", text, end, len(text))
			}
		}
	})
}

func TestFindNode(t *testing.T) {
	text := `<Root><Leaf>hi</Leaf></Root>`
	tree := syntax.Parse(text, nil)
	root := findElement(t, tree, "Root")
	leaf := findElement(t, tree, "Leaf")

	t.Run("ExactStart", func(t *testing.T) {
		if got := tree.FindNode(tree.Node(leaf).Start); got != leaf {
			t.Errorf("FindNode(leaf start) = %d, want %d", got, leaf)
		}
	})

	t.Run("InnermostWins", func(t *testing.T) {
		// Offset inside "hi" belongs to the text node, not Leaf or Root.
		off := strings.Index(text, "hi") + 1
		got := tree.FindNode(off)
		if got == syntax.None || tree.Node(got).Kind != syntax.KindText {
			t.Errorf("FindNode(%d) should find the text node, got %d", off, got)
		}
	})

	t.Run("ClosingTagBelongsToElement", func(t *testing.T) {
		off := strings.Index(text, "</Leaf>") + 2
		if got := tree.FindNode(off); got != leaf {
			t.Errorf("FindNode(%d) = %d, want leaf %d", off, got, leaf)
		}
	})

	t.Run("EOFInclusive", func(t *testing.T) {
		if got := tree.FindNode(len(text)); got != root {
			t.Errorf("FindNode(EOF) = %d, want root %d", got, root)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		if got := tree.FindNode(len(text) + 5); got != syntax.None {
			t.Errorf("FindNode past EOF = %d, want None", got)
		}
	})
}

func TestInspectBoundaryRule(t *testing.T) {
	// A text run ends exactly where the next element starts; a cursor on
	// that boundary belongs to the element.
	text := `<Root>ab<Next/></Root>`
	tree := syntax.Parse(text, nil)
	boundary := strings.Index(text, "<Next")

	loc, err := tree.Inspect(at(t, tree, boundary))
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if loc.Node.Kind != syntax.KindElement || loc.Node.Name != "Next" {
		t.Errorf("boundary position resolved to %s %q, want element Next",
			loc.Node.Kind, loc.Node.Name)
	}
	// One byte earlier is still the text run.
	loc, err = tree.Inspect(at(t, tree, boundary-1))
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if loc.Node.Kind != syntax.KindText {
		t.Errorf("pre-boundary position resolved to %s, want text", loc.Node.Kind)
	}
}

func TestInspectFlags(t *testing.T) {
	text := `<Root>` + "\n  " + `<Item Include="a.cs" Empty=""/>hello</Root>`
	tree := syntax.Parse(text, nil)

	cases := []struct {
		name string
		off  int
		want syntax.Flags
	}{
		{"Whitespace", strings.Index(text, "\n") + 1,
			syntax.FlagWhitespace | syntax.FlagElement | syntax.FlagValue},
		{"ElementName", strings.Index(text, "Item") + 1,
			syntax.FlagElement | syntax.FlagName | syntax.FlagOpeningTag},
		{"AttributeName", strings.Index(text, "Include"),
			syntax.FlagAttribute | syntax.FlagName},
		{"AttributeValue", strings.Index(text, "a.cs") + 1,
			syntax.FlagAttribute | syntax.FlagValue},
		{"EmptyAttributeValue", strings.Index(text, `Empty=""`) + 7,
			syntax.FlagAttribute | syntax.FlagValue | syntax.FlagEmpty},
		{"AttributesGap", strings.Index(text, ` Empty`),
			syntax.FlagElement | syntax.FlagOpeningTag | syntax.FlagAttributesGap},
		{"Text", strings.Index(text, "hello") + 1,
			syntax.FlagText | syntax.FlagValue},
		{"ClosingTag", strings.Index(text, "</Root>") + 3,
			syntax.FlagElement | syntax.FlagClosingTag},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := tree.Inspect(at(t, tree, tc.off))
			if err != nil {
				t.Fatalf("Inspect(%d) failed: %v", tc.off, err)
			}
			// Self-closing elements add FlagEmpty on top of the
			// positional flags; mask it except where asserted.
			if loc.Flags&^syntax.FlagEmpty != tc.want&^syntax.FlagEmpty {
				t.Errorf("flags = %s, want %s", loc.Flags, tc.want)
			}
			if tc.want.Has(syntax.FlagEmpty) && !loc.Flags.Has(syntax.FlagEmpty) {
				t.Errorf("flags = %s, missing empty", loc.Flags)
			}
		})
	}

	t.Run("SelfClosingIsEmpty", func(t *testing.T) {
		item := findElement(t, tree, "Item")
		loc, err := tree.Inspect(at(t, tree, tree.Node(item).NameStart))
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if !loc.Flags.Has(syntax.FlagEmpty) {
			t.Errorf("self-closing element flags = %s, missing empty", loc.Flags)
		}
	})

	t.Run("InvalidNodeFlagged", func(t *testing.T) {
		bad := syntax.Parse(`<Root><Broken</Root>`, nil)
		broken := findElement(t, bad, "Broken")
		loc, err := bad.Inspect(at(t, bad, bad.Node(broken).NameStart))
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if !loc.Flags.Has(syntax.FlagInvalid) {
			t.Errorf("flags = %s, missing invalid", loc.Flags)
		}
	})
}

func TestInspectErrors(t *testing.T) {
	tree := syntax.Parse(`<Root/>`, nil)

	if _, err := tree.Inspect(position.Position{Line: 99, Column: 1}); !errors.Is(err, position.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}

	empty := syntax.Parse("", nil)
	if _, err := empty.Inspect(position.Position{Line: 1, Column: 1}); !errors.Is(err, syntax.ErrNoNode) {
		t.Errorf("expected ErrNoNode on empty document, got %v", err)
	}
}
