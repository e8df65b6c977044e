// Package shared holds helpers used by more than one package that do not
// belong to any layer of their own.
//
// The testutil subpackage provides captured loggers and in-memory input
// fixtures (zip archives and workbooks) for package tests:
//
//	logger, logs := testutil.NewTestLogger(t)
//	archive := testutil.ZipArchive(t, map[string]string{
//	    "2024/9/2 09.csv": "Kurum,Takas\nA,100\n",
//	})
//
// Nothing here is imported by production code.
package shared
