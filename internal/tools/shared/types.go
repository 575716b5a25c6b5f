package shared

import "finassist/internal/tools/middleware"

// Handler is the typed function behind a tool. Args are decoded from the
// model's function call; the result is encoded back as the function response.
type Handler[A, R any] = middleware.Func[A, R]

// NoArgs is the argument type of tools that take no parameters.
type NoArgs struct{}
