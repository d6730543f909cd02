// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

/*
Package wmi gives typed access to Windows Management Instrumentation.  Queries are built from
Go struct definitions, executed through a Connection and the returned WMI class objects are
decoded into the same Go structs (or into generic maps).

Example #1 - Query all instances of a class

	type Win32_OperatingSystem struct {
		Caption string
		Debug   bool
	}

	conn, err := wmi.Connect(ctx, wmi.DefaultConfig())
	systems, err := wmi.Query[Win32_OperatingSystem](ctx, conn)

	The above runs "SELECT Caption,Debug FROM Win32_OperatingSystem ".  Only the fields declared
	in the Go struct are selected.

Example #2 - Query with filters

	filters := map[string]wmi.FilterValue{
		"DriveLetter": wmi.FilterString(`C:`),
		"BootVolume":  wmi.FilterBool(true),
	}
	volumes, err := wmi.FilteredQuery[Win32_Volume](ctx, conn, filters)

	Filter values are quoted and escaped; conditions are sorted so the query text never depends
	on map iteration order.

Go Struct Definition

	The Go struct mirrors the WMI class definition.  The class name is the Go type name unless
	the type implements ClassNamer.  Field names must be valid WMI identifiers.

Go Struct Field Tags

	BlockSizeInBytes uint64 `wmi:"BlockSize"`

		Gives the Go field a different name than the WMI property.

	MyPrivateData uint64 `wmi:"-"`

		Ignores the field.  Useful for vendor unique data attached to the struct.

	ConfigManagerErrorCode uint32 `wmi:",nil=0xFFFFFFFF"`

		Every WMI property is nullable.  By default a null value leaves the Go field at its zero
		value.  The nil tag supplies a different value for null.  A pointer field (*uint32) is nil
		when WMI returns null.

	Inner Win32_Process `wmi:",inline"`

		Decodes the inner struct from the same WMI object (a wrapper type).

Class Unions

	A WMI query may return objects of several derived classes.  A struct implementing ClassUnion,
	whose fields are pointers to structs, is decoded by setting the single field whose class name
	matches the object's __CLASS property.

Ownership

	ClassObject owns one reference on a native WMI class object.  Clone adds a reference,
	Release drops it.  AdoptClassObject takes over an existing reference without adding one.
*/
package wmi
