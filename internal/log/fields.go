package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldUID       = "uid"
	FieldBudget    = "budget"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldLabel     = "label"
	FieldExpenseID = "expense_id"
	FieldBackend   = "backend"
	FieldExchange  = "exchange"
	FieldQueue     = "queue"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentSession   = "session"
	ComponentLedger    = "ledger"
	ComponentStore     = "store"
	ComponentFirestore = "firestore"
	ComponentAuth      = "auth"
	ComponentAMQP      = "amqp"
	ComponentBackend   = "backend"
	ComponentSeed      = "seed"
)

// Operations defines standard operation names
const (
	OpSetBudget  = "set_budget"
	OpAddExpense = "add_expense"
	OpObserve    = "observe"
	OpPublish    = "publish"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
