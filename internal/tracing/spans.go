package tracing

// Span attribute keys shared by the core packages.
const (
	// Command attributes
	AttrCommandID      = "command.id"
	AttrCommandName    = "command.name"
	AttrCommandTrigger = "command.trigger"

	// Serialization attributes
	AttrRootID      = "root.id"
	AttrRecordCount = "records"
)

// Span names used across the core.
const (
	SpanCommandExecute = "command.execute"
	SpanCommandUndo    = "command.undo"
	SpanCommandRedo    = "command.redo"

	SpanSerializeGraph = "serialize.graph"
	SpanMaterialize    = "deserialize.materialize"
	SpanWire           = "deserialize.wire"
)
