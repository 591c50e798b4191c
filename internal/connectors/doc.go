// Package connectors holds platform connector implementations. Each
// connector packages one upstream platform's transport, record
// acquisition paths and stream catalog behind the driven.Catalog port.
package connectors
