// Package storage owns the relational tasks table. It opens SQLite or MySQL
// through database/sql, bootstraps the schema and executes parameterized
// statements, translating driver failures into coded errors.
package storage
