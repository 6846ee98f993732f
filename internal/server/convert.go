package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"anvil/internal/completion"
	"anvil/internal/document"
	"anvil/internal/position"
)

// Protocol positions are zero-based; the analysis layer is one-based.

func fromProtocolPosition(p protocol.Position) position.Position {
	return position.Position{Line: int(p.Line) + 1, Column: int(p.Character) + 1}
}

func toProtocolPosition(p position.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(p.Column - 1),
	}
}

func toProtocolRange(r position.Range) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(r.Start),
		End:   toProtocolPosition(r.End),
	}
}

func toProtocolSeverity(s document.Severity) protocol.DiagnosticSeverity {
	switch s {
	case document.SeverityError:
		return protocol.DiagnosticSeverityError
	case document.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func toProtocolCompletionKind(k completion.ItemKind) protocol.CompletionItemKind {
	switch k {
	case completion.KindElement:
		return protocol.CompletionItemKindClass
	case completion.KindAttribute:
		return protocol.CompletionItemKindProperty
	case completion.KindProperty:
		return protocol.CompletionItemKindVariable
	case completion.KindItem:
		return protocol.CompletionItemKindValue
	case completion.KindMetadata:
		return protocol.CompletionItemKindField
	case completion.KindTask:
		return protocol.CompletionItemKindFunction
	case completion.KindFunction:
		return protocol.CompletionItemKindFunction
	default:
		return protocol.CompletionItemKindText
	}
}

func toProtocolSymbolKind(k document.SymbolKind) protocol.SymbolKind {
	switch k {
	case document.SymbolProperty:
		return protocol.SymbolKindProperty
	case document.SymbolItem:
		return protocol.SymbolKindArray
	case document.SymbolTarget:
		return protocol.SymbolKindFunction
	case document.SymbolTask:
		return protocol.SymbolKindClass
	default:
		return protocol.SymbolKindObject
	}
}
