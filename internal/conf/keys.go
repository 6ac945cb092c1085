package conf

// Configuration keys shared between the harness and the embedded engine.
const (
	KeyWarehouseDir      = "hive.metastore.warehouse.dir"
	KeyMetastoreDir      = "hive.metastore.metadb.dir"
	KeyScratchDir        = "hive.exec.scratchdir"
	KeyScratchDirPerm    = "hive.scratch.dir.permission"
	KeyConnectionURL     = "javax.jdo.option.ConnectionURL"
	KeyMetastoreLocal    = "hive.metastore.local"
	KeyAuxJarsPath       = "hive.aux.jars.path"
	KeyAddedJarsPath     = "hive.added.jars.path"
	KeyAddedFilesPath    = "hive.added.files.path"
	KeyAddedArchivesPath = "hive.added.archives.path"
	KeyBuiltinJars       = "hive.builtin.jars"
	KeyDefaultFS         = "fs.default.name"
	KeyFileImpl          = "fs.file.impl"
	KeyJobTracker        = "mapred.job.tracker"
	KeyPathSeparator     = "path.separator"
	KeyFieldDelimiter    = "hive.load.field.delimiter"
)

// LocalFS is the default filesystem URI forced for in-process execution.
const LocalFS = "file:///"
