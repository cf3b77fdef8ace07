// Package shelf is the business layer over the catalog store. Each manager
// call runs in its own repository session.
package shelf
