package repositories

// SingletonID is the fixed primary key of every "exactly one row" table.
// The schema enforces it with CHECK (id = 1).
const SingletonID = 1
